package http

import (
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service   interfaces.OrderService
	scheduler interfaces.Scheduler
	logger    logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, scheduler interfaces.Scheduler, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		scheduler: scheduler,
		logger:    logger,
	}
}

type CreateOrderRequest struct {
	CookID     string      `json:"cook_id" binding:"required"`
	CustomerID string      `json:"customer_id" binding:"required"`
	Date       domain.Date `json:"date"`
	TimeZone   string      `json:"time_zone"`
	SlotIndex  int         `json:"slot_index" binding:"min=0,max=3"`
}

type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required,oneof=pending ready delivered cancelled"`
}

// CreateOrder answers 201 when an order was placed and 200 with the outcome
// for every no-op.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.service.CreateIfAbsent(c.Request.Context(), interfaces.CreateOrderCommand{
		CookID:     req.CookID,
		CustomerID: req.CustomerID,
		Date:       req.Date,
		TimeZone:   req.TimeZone,
		SlotIndex:  req.SlotIndex,
	})
	if err != nil {
		respondError(c, h.logger, "order_create_failed", err)
		return
	}

	status := http.StatusOK
	if result.Created() {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, h.logger, "order_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	o, err := h.service.Cancel(c.Request.Context(), c.Param("orderId"), h.scheduler.Now())
	if err != nil {
		respondError(c, h.logger, "order_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.service.AdvanceStatus(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		respondError(c, h.logger, "order_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, o)
}
