package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
)

// Event types carried in StatusUpdateMessage.Event.
const (
	EventOrderCreated  = "order.created"
	EventOrderStatus   = "order.status"
	EventMenuPublished = "menu.published"
	EventMenuClosed    = "menu.closed"
)

// StatusUpdateMessage notifies subscribers that an order changed state.
type StatusUpdateMessage struct {
	Event      string             `json:"event"`
	OrderID    string             `json:"order_id"`
	CookID     string             `json:"cook_id"`
	CustomerID string             `json:"customer_id"`
	LocalDate  domain.Date        `json:"local_date"`
	OldStatus  domain.OrderStatus `json:"old_status,omitempty"`
	NewStatus  domain.OrderStatus `json:"new_status"`
	ChangedBy  string             `json:"changed_by"`
	Timestamp  time.Time          `json:"timestamp"`
}

// MenuDayMessage notifies subscribers that a menu day was published or closed.
type MenuDayMessage struct {
	Event     string               `json:"event"`
	MenuDayID string               `json:"menu_day_id"`
	CookID    string               `json:"cook_id"`
	Date      domain.Date          `json:"date"`
	Status    domain.MenuDayStatus `json:"status"`
	Dishes    []domain.DishSlot    `json:"dishes"`
	Timestamp time.Time            `json:"timestamp"`
}

type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
	PublishMenuDay(ctx context.Context, msg MenuDayMessage) error
	Close() error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
