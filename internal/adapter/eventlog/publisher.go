package eventlog

import (
	"context"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// Publisher writes events to the structured log. It is the default sink when
// no broker is configured.
type Publisher struct {
	logger logger.Logger
}

func NewPublisher(logger logger.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	p.logger.Info("event_"+msg.Event, "Order event", logger.RequestID(ctx), map[string]interface{}{
		"order_id":    msg.OrderID,
		"cook_id":     msg.CookID,
		"customer_id": msg.CustomerID,
		"local_date":  msg.LocalDate.String(),
		"old_status":  msg.OldStatus,
		"new_status":  msg.NewStatus,
		"changed_by":  msg.ChangedBy,
	})
	return nil
}

func (p *Publisher) PublishMenuDay(ctx context.Context, msg interfaces.MenuDayMessage) error {
	p.logger.Info("event_"+msg.Event, "Menu day event", logger.RequestID(ctx), map[string]interface{}{
		"menu_day_id": msg.MenuDayID,
		"cook_id":     msg.CookID,
		"date":        msg.Date.String(),
		"status":      msg.Status,
	})
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
