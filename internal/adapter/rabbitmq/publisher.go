package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// NotificationsExchange fans order status changes out to every subscriber.
	NotificationsExchange = "lunchmate_notifications"
	// MenuExchange carries menu-day events keyed menu.<status>.
	MenuExchange = "lunchmate_menu"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return p.publish(ctx, NotificationsExchange, "fanout", "", msg, amqp.Persistent)
}

func (p *publisher) PublishMenuDay(ctx context.Context, msg interfaces.MenuDayMessage) error {
	return p.publish(ctx, MenuExchange, "topic", MenuRoutingKey(msg), msg, amqp.Persistent)
}

func (p *publisher) Close() error {
	return p.conn.Close()
}

// MenuRoutingKey returns the topic key of a menu-day event.
func MenuRoutingKey(msg interfaces.MenuDayMessage) string {
	return fmt.Sprintf("menu.%s", msg.Status)
}

func (p *publisher) publish(ctx context.Context, exchange, kind, key string, msg any, mode uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(exchange, key, false, false, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
