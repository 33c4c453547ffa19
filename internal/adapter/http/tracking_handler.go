package http

import (
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) GetOrderStatus(c *gin.Context) {
	result, err := h.service.GetOrderStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, h.logger, "tracking_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TrackingHandler) GetOrderHistory(c *gin.Context) {
	history, err := h.service.GetOrderHistory(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, h.logger, "tracking_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// ListCookOrders is the cook's delivery list for one day.
func (h *TrackingHandler) ListCookOrders(c *gin.Context) {
	date, ok := dateParam(c, c.Query("date"))
	if !ok {
		return
	}

	orders, err := h.service.ListForDay(c.Request.Context(), c.Param("cookId"), date)
	if err != nil {
		respondError(c, h.logger, "tracking_day_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *TrackingHandler) ListCustomerOrders(c *gin.Context) {
	orders, err := h.service.ListForCustomer(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, h.logger, "tracking_customer_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
