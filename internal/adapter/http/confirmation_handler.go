package http

import (
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
)

type ConfirmationHandler struct {
	service interfaces.ConfirmationService
	logger  logger.Logger
}

func NewConfirmationHandler(service interfaces.ConfirmationService, logger logger.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		service: service,
		logger:  logger,
	}
}

type ConfirmRequest struct {
	ClientID  string      `json:"client_id" binding:"required"`
	Date      domain.Date `json:"date"`
	DishIndex int         `json:"dish_index" binding:"required"`
}

func (h *ConfirmationHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conf, err := h.service.Confirm(c.Request.Context(), c.Param("cookId"), req.ClientID, req.Date, req.DishIndex)
	if err != nil {
		respondError(c, h.logger, "confirmation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

func (h *ConfirmationHandler) Cancel(c *gin.Context) {
	conf, err := h.service.Cancel(c.Request.Context(), c.Param("confirmationId"))
	if err != nil {
		respondError(c, h.logger, "confirmation_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (h *ConfirmationHandler) List(c *gin.Context) {
	date, ok := dateParam(c, c.Query("date"))
	if !ok {
		return
	}

	list, err := h.service.ListByDay(c.Request.Context(), c.Param("cookId"), date)
	if err != nil {
		respondError(c, h.logger, "confirmation_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmations": list})
}
