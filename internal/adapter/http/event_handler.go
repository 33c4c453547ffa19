package http

import (
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service interfaces.EventService
	logger  logger.Logger
}

func NewEventHandler(service interfaces.EventService, logger logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var cmd interfaces.EventCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondBindError(c, err)
		return
	}

	ev, err := h.service.Create(c.Request.Context(), c.Param("cookId"), cmd)
	if err != nil {
		respondError(c, h.logger, "event_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// ListEvents answers either ?date= for one day or ?from=&to= for a range.
func (h *EventHandler) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()
	cookID := c.Param("cookId")

	var (
		events []*domain.CalendarEvent
		err    error
	)
	if raw, ok := c.GetQuery("date"); ok {
		day, ok := dateParam(c, raw)
		if !ok {
			return
		}
		events, err = h.service.ListByDay(ctx, cookID, day)
	} else {
		from, ok := dateParam(c, c.Query("from"))
		if !ok {
			return
		}
		to, ok := dateParam(c, c.Query("to"))
		if !ok {
			return
		}
		events, err = h.service.ListRange(ctx, cookID, from, to)
	}
	if err != nil {
		respondError(c, h.logger, "event_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	ev, err := h.service.Get(c.Request.Context(), c.Param("cookId"), c.Param("eventId"))
	if err != nil {
		respondError(c, h.logger, "event_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var cmd interfaces.EventCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondBindError(c, err)
		return
	}

	ev, err := h.service.Update(c.Request.Context(), c.Param("cookId"), c.Param("eventId"), cmd)
	if err != nil {
		respondError(c, h.logger, "event_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("cookId"), c.Param("eventId")); err != nil {
		respondError(c, h.logger, "event_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
