package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/shopspring/decimal"
)

// Интерфейсы сервисов, которые вызывает HTTP слой

type Scheduler interface {
	Now() time.Time
	ResolveTimeZone(id string) (*time.Location, error)
	NextBusinessDays(loc *time.Location, count int) []domain.Date
	CutoffInstantUTC(loc *time.Location, date domain.Date) time.Time
}

type MenuService interface {
	GetOrCreate(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, error)
	Publish(ctx context.Context, cookID string, date domain.Date, dishes []domain.DishSlot) (*domain.MenuDay, error)
	ListRange(ctx context.Context, cookID string, start, end domain.Date) ([]*domain.MenuDay, error)
}

type OrderService interface {
	CreateIfAbsent(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error)
	Cancel(ctx context.Context, orderID string, now time.Time) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderID string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
	ListForDay(ctx context.Context, cookID string, date domain.Date) ([]*domain.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
}

type ConfirmationService interface {
	Confirm(ctx context.Context, cookID, clientID string, date domain.Date, dishIndex int) (*domain.Confirmation, error)
	Cancel(ctx context.Context, confirmationID string) (*domain.Confirmation, error)
	ListByDay(ctx context.Context, cookID string, date domain.Date) ([]domain.Confirmation, error)
	CountConfirmed(ctx context.Context, cookID string, date domain.Date) (map[int]int, error)
	CountOrdersByStatus(ctx context.Context, cookID string, date domain.Date) (map[domain.OrderStatus]int, error)
}

type MealService interface {
	GetOrCreate(ctx context.Context, cookID, name string, price decimal.Decimal, details MealDetails) (*domain.Meal, bool, error)
	Get(ctx context.Context, mealID string) (*domain.Meal, error)
	ListByCook(ctx context.Context, cookID string, activeOnly bool) ([]*domain.Meal, error)
	ListActiveCooks(ctx context.Context) ([]string, error)
	Deactivate(ctx context.Context, mealID string) (*domain.Meal, error)
	UpdatePrice(ctx context.Context, mealID string, price decimal.Decimal) (*domain.Meal, error)
}

type ReviewService interface {
	Upsert(ctx context.Context, mealID, userID string, rating int, comment string) (*domain.Review, error)
	ListByMeal(ctx context.Context, mealID string) ([]*domain.Review, error)
}

type InventoryService interface {
	Add(ctx context.Context, cmd AddInventoryCommand) (*domain.InventoryItem, error)
	ListByCook(ctx context.Context, cookID string) ([]*domain.InventoryItem, error)
	AdjustQuantity(ctx context.Context, itemID string, delta decimal.Decimal) (*domain.InventoryItem, error)
	LowStock(ctx context.Context, cookID string) ([]*domain.InventoryItem, error)
	Update(ctx context.Context, cookID, itemID string, cmd UpdateInventoryCommand) (*domain.InventoryItem, error)
	Delete(ctx context.Context, cookID, itemID string) error
}

type EventService interface {
	Create(ctx context.Context, cookID string, cmd EventCommand) (*domain.CalendarEvent, error)
	Get(ctx context.Context, cookID, eventID string) (*domain.CalendarEvent, error)
	ListByDay(ctx context.Context, cookID string, day domain.Date) ([]*domain.CalendarEvent, error)
	ListRange(ctx context.Context, cookID string, start, end domain.Date) ([]*domain.CalendarEvent, error)
	Update(ctx context.Context, cookID, eventID string, cmd EventCommand) (*domain.CalendarEvent, error)
	Delete(ctx context.Context, cookID, eventID string) error
}

// Команды

// CreateOrderCommand asks for one order of a cook's delivery day. SlotIndex 0
// selects the first slot holding a meal.
type CreateOrderCommand struct {
	CookID     string      `json:"cook_id"`
	CustomerID string      `json:"customer_id"`
	Date       domain.Date `json:"date"`
	TimeZone   string      `json:"time_zone,omitempty"`
	SlotIndex  int         `json:"slot_index,omitempty"`
}

// OrderOutcome explains what CreateIfAbsent did.
type OrderOutcome string

const (
	OutcomeCreated         OrderOutcome = "created"
	OutcomeNoMenu          OrderOutcome = "no_menu"
	OutcomeAlreadyExists   OrderOutcome = "already_exists"
	OutcomeMealUnavailable OrderOutcome = "meal_unavailable"
	OutcomeDayClosed       OrderOutcome = "day_closed"
)

type CreateOrderResult struct {
	Order   *domain.Order `json:"order,omitempty"`
	Outcome OrderOutcome  `json:"outcome"`
}

func (r CreateOrderResult) Created() bool {
	return r.Outcome == OutcomeCreated
}

// MealDetails are the optional descriptive fields of a meal.
type MealDetails struct {
	Description string `json:"description"`
	Ingredients string `json:"ingredients"`
	ImageURL    string `json:"image_url"`
}

type AddInventoryCommand struct {
	CookID            string           `json:"cook_id"`
	Name              string           `json:"name"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Unit              string           `json:"unit"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	Notes             string           `json:"notes,omitempty"`
}

// UpdateInventoryCommand replaces the editable fields of a stock record.
type UpdateInventoryCommand struct {
	Name              string           `json:"name"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Unit              string           `json:"unit"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	Notes             string           `json:"notes,omitempty"`
}

// EventCommand carries every editable field of a calendar event. Empty
// category, priority and status fall back to other, medium and planned.
type EventCommand struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Start          time.Time            `json:"start"`
	End            time.Time            `json:"end"`
	TimeZone       string               `json:"time_zone,omitempty"`
	Category       domain.EventCategory `json:"category,omitempty"`
	Priority       domain.EventPriority `json:"priority,omitempty"`
	Status         domain.EventStatus   `json:"status,omitempty"`
	Assignees      []string             `json:"assignees,omitempty"`
	RecurrenceRule string               `json:"recurrence_rule,omitempty"`
}

// Ответы Tracking Service
type TrackingOrderResponse struct {
	OrderID       string             `json:"order_id"`
	CurrentStatus domain.OrderStatus `json:"current_status"`
	UpdatedAt     time.Time          `json:"updated_at"`
	CancelUntil   time.Time          `json:"cancel_until"`
	Cancellable   bool               `json:"cancellable"`
}
