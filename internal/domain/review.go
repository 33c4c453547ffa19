package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is unique per (meal, user); a second write replaces the first.
type Review struct {
	ID        string    `json:"id"`
	MealID    string    `json:"meal_id" validate:"required"`
	UserID    string    `json:"user_id" validate:"required"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=1000"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReview(mealID, userID string, rating int, comment string, now time.Time) (*Review, error) {
	r := &Review{
		ID:        uuid.NewString(),
		MealID:    mealID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
	}
	if err := validateStruct(r); err != nil {
		return nil, err
	}
	return r, nil
}
