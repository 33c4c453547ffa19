package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Events   EventsConfig   `yaml:"events"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Timeout time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Migrate  bool   `yaml:"migrate"`
}

// ConnString prefers an explicit DSN over the individual fields.
func (c PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type EventsConfig struct {
	Driver string `yaml:"driver"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ScheduleConfig struct {
	TimeZone     string `yaml:"timezone"`
	Cutoff       string `yaml:"cutoff"`
	BusinessDays int    `yaml:"business_days"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type SeedConfig struct {
	Preserve bool   `yaml:"preserve"`
	TimeZone string `yaml:"timezone"`
}

// Default returns a configuration that runs fully in memory.
func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{Port: 3000, AllowedOrigins: []string{"*"}},
		Store:    StoreConfig{Driver: "memory", Timeout: 10 * time.Second},
		Postgres: PostgresConfig{Host: "localhost", Port: 5432, User: "lunchmate", Database: "lunchmate", Migrate: true},
		Mongo:    MongoConfig{URI: "mongodb://localhost:27017", Database: "lunchmate"},
		Events:   EventsConfig{Driver: "log"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Kafka:    KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "lunchmate.events"},
		Schedule: ScheduleConfig{TimeZone: "America/Bogota", Cutoff: "08:00", BusinessDays: 5},
		Log:      LogConfig{Level: "info"},
		Seed:     SeedConfig{Preserve: true},
	}
}

// Load reads .env (if any), then the YAML file (if any), then applies
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Store.Driver = getEnv("LUNCHMATE_STORE_DRIVER", cfg.Store.Driver)
	cfg.Postgres.DSN = getEnv("LUNCHMATE_POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Mongo.URI = getEnv("LUNCHMATE_MONGO_URI", cfg.Mongo.URI)
	cfg.Events.Driver = getEnv("LUNCHMATE_EVENTS_DRIVER", cfg.Events.Driver)
	cfg.Schedule.TimeZone = getEnv("LUNCHMATE_TIMEZONE", cfg.Schedule.TimeZone)
	cfg.Log.Level = getEnv("LUNCHMATE_LOG_LEVEL", cfg.Log.Level)

	if v, ok := os.LookupEnv("LUNCHMATE_HTTP_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v, ok := os.LookupEnv("LUNCHMATE_KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "mongo":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case "log", "rabbitmq", "kafka":
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}

	if _, err := time.Parse("15:04", c.Schedule.Cutoff); err != nil {
		return fmt.Errorf("invalid schedule.cutoff %q: %w", c.Schedule.Cutoff, err)
	}
	if c.Schedule.BusinessDays <= 0 {
		return fmt.Errorf("schedule.business_days must be positive")
	}
	if c.Seed.TimeZone == "" {
		c.Seed.TimeZone = c.Schedule.TimeZone
	}
	return nil
}
