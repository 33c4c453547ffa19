package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer's order for one cook's delivery day
type Order struct {
	ID           string          `json:"id"`
	CookID       string          `json:"cook_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	MenuDayID    string          `json:"menu_day_id"`
	MealID       string          `json:"meal_id"`
	MealName     string          `json:"meal_name"`
	DishIndex    int             `json:"dish_index"`
	LocalDate    Date            `json:"local_date"`
	DeliveryDate time.Time       `json:"delivery_date"`
	CancelUntil  time.Time       `json:"cancel_until"`
	TimeZone     string          `json:"time_zone"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ReadyAt      *time.Time      `json:"ready_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

// NewOrder creates a pending order for the given slot of a menu day.
// The meal price is captured as an immutable snapshot.
func NewOrder(md *MenuDay, slot DishSlot, customerID string, meal *Meal, cancelUntil time.Time, now time.Time) *Order {
	return &Order{
		ID:           uuid.NewString(),
		CookID:       md.CookID,
		CustomerID:   customerID,
		MenuDayID:    md.ID,
		MealID:       meal.ID,
		MealName:     meal.Name,
		DishIndex:    slot.Index,
		LocalDate:    md.Date,
		DeliveryDate: md.Date.DeliveryKey(),
		CancelUntil:  cancelUntil.UTC(),
		TimeZone:     md.TimeZone,
		PriceAtOrder: meal.Price,
		Status:       OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// statusRank orders the forward path. Cancelled is off the path.
var statusRank = map[OrderStatus]int{
	OrderPending:   0,
	OrderReady:     1,
	OrderDelivered: 2,
}

// validTransitions is the cook-driven transition table.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderReady, OrderDelivered},
	OrderReady:     {OrderDelivered},
	OrderDelivered: {},
	OrderCancelled: {},
}

// CheckTransition validates a cook-driven move without applying it.
// Backward moves are reported before terminal state.
func (o *Order) CheckTransition(newStatus OrderStatus) error {
	if !newStatus.Valid() || !o.Status.Valid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}
	if newStatus == OrderCancelled {
		return fmt.Errorf("%w: cancellation goes through Cancel", ErrInvalidTransition)
	}

	from, fromOK := statusRank[o.Status]
	to := statusRank[newStatus]
	if fromOK && to < from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, o.Status)
	}

	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus OrderStatus, now time.Time) error {
	if err := o.CheckTransition(newStatus); err != nil {
		return err
	}

	o.Status = newStatus
	o.UpdatedAt = now

	switch newStatus {
	case OrderReady:
		o.ReadyAt = &now
	case OrderDelivered:
		o.DeliveredAt = &now
	}
	return nil
}

// Cancel cancels the order if the cutoff has not been reached.
func (o *Order) Cancel(now time.Time) error {
	if !now.Before(o.CancelUntil) {
		return fmt.Errorf("%w: cancellable until %s", ErrCutoffPassed, o.CancelUntil.Format(time.RFC3339))
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, o.Status)
	}

	o.Status = OrderCancelled
	o.UpdatedAt = now
	o.CancelledAt = &now
	return nil
}

// Clone returns a copy safe to hand out to callers.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
