package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/eventlog"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/kafka"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/mongo"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/postgres"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/app/confirmation"
	"github.com/YelzhanWeb/lunchmate/internal/app/event"
	"github.com/YelzhanWeb/lunchmate/internal/app/inventory"
	"github.com/YelzhanWeb/lunchmate/internal/app/meal"
	"github.com/YelzhanWeb/lunchmate/internal/app/menu"
	"github.com/YelzhanWeb/lunchmate/internal/app/order"
	"github.com/YelzhanWeb/lunchmate/internal/app/review"
	"github.com/YelzhanWeb/lunchmate/internal/app/seed"
	"github.com/YelzhanWeb/lunchmate/internal/app/tracking"
	"github.com/YelzhanWeb/lunchmate/internal/app/user"
	"github.com/YelzhanWeb/lunchmate/internal/config"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"

	amqpAdapter "github.com/YelzhanWeb/lunchmate/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/lunchmate/internal/adapter/http"
)

// services is the application layer shared by the api and seed modes.
type services struct {
	calendar      *calendar.Service
	users         *user.Service
	meals         *meal.Service
	menus         *menu.Manager
	confirmations *confirmation.Aggregator
	orders        *order.Service
	tracking      *tracking.Service
	reviews       *review.Service
	inventory     *inventory.Service
	events        *event.Service
}

func main() {
	mode := flag.String("mode", "api", "Service mode: api, seed, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lgr := logger.New(*mode, logger.ParseLevel(cfg.Log.Level))
	ctx := context.Background()

	switch *mode {
	case "api":
		runAPI(ctx, cfg, lgr)
	case "seed":
		runSeed(ctx, cfg, lgr)
	case "notification-subscriber":
		runNotificationSubscriber(cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	store := openStore(ctx, cfg, lgr)
	defer closeStore(store, lgr)

	publisher := openPublisher(cfg, lgr)
	defer publisher.Close()

	svc := buildServices(cfg, store, publisher, lgr)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Menus:         httpAdapter.NewMenuHandler(svc.menus, svc.confirmations, svc.calendar, cfg.Schedule.TimeZone, lgr),
		Orders:        httpAdapter.NewOrderHandler(svc.orders, svc.calendar, lgr),
		Tracking:      httpAdapter.NewTrackingHandler(svc.tracking, lgr),
		Confirmations: httpAdapter.NewConfirmationHandler(svc.confirmations, lgr),
		Catalog:       httpAdapter.NewCatalogHandler(svc.meals, svc.reviews, svc.inventory, lgr),
		Events:        httpAdapter.NewEventHandler(svc.events, lgr),
	}, cfg.HTTP.AllowedOrigins, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port":     cfg.HTTP.Port,
		"store":    cfg.Store.Driver,
		"events":   cfg.Events.Driver,
		"timezone": cfg.Schedule.TimeZone,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runSeed(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	store := openStore(ctx, cfg, lgr)
	defer closeStore(store, lgr)

	publisher := openPublisher(cfg, lgr)
	defer publisher.Close()

	svc := buildServices(cfg, store, publisher, lgr)
	seeder := seed.NewSeeder(svc.users, svc.meals, svc.menus, svc.orders, svc.reviews, svc.calendar, lgr)

	ctx = logger.WithRequestID(ctx, "seed")
	report, err := seeder.Run(ctx, seed.Options{
		TimeZone:     cfg.Seed.TimeZone,
		Preserve:     cfg.Seed.Preserve,
		BusinessDays: cfg.Schedule.BusinessDays,
	})
	if err != nil {
		lgr.Error("seed_failed", "Seeding failed", "seed", nil, err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}

func runNotificationSubscriber(cfg *config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	if err := consumer.ConsumeNotifications(ctx, handler.HandleNotification); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("graceful_shutdown", "Notification Subscriber stopped", "shutdown", nil)
}

func buildServices(cfg *config.Config, store interfaces.DocumentStore, publisher interfaces.MessagePublisher, lgr logger.Logger) *services {
	cutoff, err := domain.ParseClockTime(cfg.Schedule.Cutoff)
	if err != nil {
		log.Fatalf("Invalid cutoff: %v", err)
	}
	tz := cfg.Schedule.TimeZone

	cal := calendar.NewService(cutoff, time.Now)
	users := user.NewService(store, cal, lgr)
	agg := confirmation.NewAggregator(store, cal, lgr, tz)
	menus := menu.NewManager(store, cal, agg, publisher, lgr, tz)

	return &services{
		calendar:      cal,
		users:         users,
		meals:         meal.NewService(store, users, cal, lgr),
		menus:         menus,
		confirmations: agg,
		orders:        order.NewService(store, menus, cal, users, publisher, lgr, tz),
		tracking:      tracking.NewService(store, cal, lgr),
		reviews:       review.NewService(store, users, cal, lgr),
		inventory:     inventory.NewService(store, cal, lgr),
		events:        event.NewService(store, cal, lgr, tz),
	}
}

// openStore connects the configured document store and declares its indexes.
func openStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) interfaces.DocumentStore {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()

	var store interfaces.DocumentStore
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Connect(connectCtx, cfg.Postgres)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		store = postgres.NewDocumentStore(db)
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Postgres.Host,
			"db":   cfg.Postgres.Database,
		})
	case "mongo":
		mongoStore, err := mongo.Connect(connectCtx, cfg.Mongo)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		store = mongoStore
		lgr.Info("db_connected", "Connected to MongoDB", "startup", map[string]interface{}{
			"db": cfg.Mongo.Database,
		})
	default:
		store = memory.NewStore()
		lgr.Warn("db_in_memory", "Using the in-memory store, data is lost on exit", "startup", nil)
	}

	if err := store.EnsureIndexes(connectCtx, domain.Indexes()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	return store
}

func closeStore(store interfaces.DocumentStore, lgr logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		lgr.Error("db_close_failed", "Failed to close store", "shutdown", nil, err)
	}
}

func openPublisher(cfg *config.Config, lgr logger.Logger) interfaces.MessagePublisher {
	switch cfg.Events.Driver {
	case "rabbitmq":
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
		return rabbitmq.NewPublisher(mqConn)
	case "kafka":
		producer, err := kafka.NewSyncProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
		lgr.Info("kafka_connected", "Connected to Kafka", "startup", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
		return kafka.NewPublisher(producer, cfg.Kafka.Topic, lgr)
	default:
		return eventlog.NewPublisher(lgr)
	}
}
