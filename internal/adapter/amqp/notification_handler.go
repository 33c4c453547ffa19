package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// NotificationHandler prints order and menu events for a human operator.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

type envelope struct {
	Event string `json:"event"`
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	if strings.HasPrefix(env.Event, "menu.") {
		return h.handleMenuDay(body)
	}
	return h.handleStatusUpdate(body)
}

func (h *NotificationHandler) handleStatusUpdate(body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse status update", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", "Received order event", msg.OrderID, map[string]interface{}{
		"event":      msg.Event,
		"order_id":   msg.OrderID,
		"new_status": msg.NewStatus,
	})

	if msg.Event == interfaces.EventOrderCreated {
		_, err := fmt.Fprintf(h.out, "Order %s placed for %s with cook %s\n", msg.OrderID, msg.LocalDate, msg.CookID)
		return err
	}
	_, err := fmt.Fprintf(h.out, "Order %s: status changed from '%s' to '%s' by %s\n",
		msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	return err
}

func (h *NotificationHandler) handleMenuDay(body []byte) error {
	var msg interfaces.MenuDayMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse menu event", "", nil, err)
		return err
	}

	dishes := make([]string, 0, len(msg.Dishes))
	for _, d := range msg.Dishes {
		if d.Name != "" {
			dishes = append(dishes, d.Name)
		}
	}

	_, err := fmt.Fprintf(h.out, "Menu of cook %s for %s is %s: %s\n",
		msg.CookID, msg.Date, msg.Status, strings.Join(dishes, ", "))
	return err
}
