package domain

import (
	"time"

	"github.com/google/uuid"
)

// Confirmation records a customer's acceptance of one dish slot of a menu day.
// It is never deleted; cancellation is a status change.
type Confirmation struct {
	ID          string             `json:"id"`
	CookID      string             `json:"cook_id"`
	ClientID    string             `json:"client_id"`
	Date        Date               `json:"date"`
	DishIndex   int                `json:"dish_index"`
	Status      ConfirmationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
}

func NewConfirmation(cookID, clientID string, date Date, dishIndex int, now time.Time) (*Confirmation, error) {
	if dishIndex < 1 || dishIndex > SlotsPerDay {
		return nil, ErrInvalidSlot
	}
	return &Confirmation{
		ID:        uuid.NewString(),
		CookID:    cookID,
		ClientID:  clientID,
		Date:      date,
		DishIndex: dishIndex,
		Status:    ConfirmationConfirmed,
		CreatedAt: now,
	}, nil
}
