package http

import (
	"net/http"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Menus         *MenuHandler
	Orders        *OrderHandler
	Tracking      *TrackingHandler
	Confirmations *ConfirmationHandler
	Catalog       *CatalogHandler
	Events        *EventHandler
}

// NewRouter wires every route under /api.
func NewRouter(h Handlers, allowedOrigins []string, lgr logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware(lgr), LoggingMiddleware(lgr))

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(allowedOrigins)))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/business-days", h.Menus.ListBusinessDays)
		api.GET("/cooks", h.Catalog.ListCooks)

		cooks := api.Group("/cooks/:cookId")
		cooks.GET("/menu-days", h.Menus.ListMenuDays)
		cooks.GET("/menu-days/:date", h.Menus.GetMenuDay)
		cooks.PUT("/menu-days/:date", h.Menus.PublishMenuDay)
		cooks.GET("/menu-days/:date/summary", h.Menus.GetMenuSummary)
		cooks.GET("/orders", h.Tracking.ListCookOrders)
		cooks.POST("/confirmations", h.Confirmations.Confirm)
		cooks.GET("/confirmations", h.Confirmations.List)
		cooks.POST("/meals", h.Catalog.CreateMeal)
		cooks.GET("/meals", h.Catalog.ListMeals)
		cooks.POST("/inventory", h.Catalog.AddInventory)
		cooks.GET("/inventory", h.Catalog.ListInventory)
		cooks.PUT("/inventory/:itemId", h.Catalog.UpdateInventory)
		cooks.DELETE("/inventory/:itemId", h.Catalog.DeleteInventory)

		events := cooks.Group("/events")
		events.POST("", h.Events.CreateEvent)
		events.GET("", h.Events.ListEvents)
		events.GET("/:eventId", h.Events.GetEvent)
		events.PUT("/:eventId", h.Events.UpdateEvent)
		events.DELETE("/:eventId", h.Events.DeleteEvent)

		api.POST("/orders", h.Orders.CreateOrder)
		api.GET("/orders/:orderId", h.Orders.GetOrder)
		api.POST("/orders/:orderId/cancel", h.Orders.CancelOrder)
		api.PUT("/orders/:orderId/status", h.Orders.UpdateStatus)
		api.GET("/orders/:orderId/tracking", h.Tracking.GetOrderStatus)
		api.GET("/orders/:orderId/history", h.Tracking.GetOrderHistory)

		api.GET("/customers/:customerId/orders", h.Tracking.ListCustomerOrders)
		api.DELETE("/confirmations/:confirmationId", h.Confirmations.Cancel)

		api.GET("/meals/:mealId", h.Catalog.GetMeal)
		api.PATCH("/meals/:mealId/price", h.Catalog.UpdatePrice)
		api.DELETE("/meals/:mealId", h.Catalog.DeactivateMeal)
		api.PUT("/meals/:mealId/reviews", h.Catalog.UpsertReview)
		api.GET("/meals/:mealId/reviews", h.Catalog.ListReviews)

		api.PATCH("/inventory/:itemId", h.Catalog.AdjustInventory)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader, userIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		// Credentials cannot be combined with a wildcard origin
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
