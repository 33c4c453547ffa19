package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	MinMealPrice = decimal.RequireFromString("0.01")
	MaxMealPrice = decimal.RequireFromString("9999")
)

// Meal represents a dish offered by exactly one cook
type Meal struct {
	ID          string          `json:"id"`
	CookID      string          `json:"cook_id" validate:"required"`
	CookName    string          `json:"cook_name"`
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	Ingredients string          `json:"ingredients" validate:"max=1000"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewMeal creates an active meal and validates it
func NewMeal(cookID, name string, price decimal.Decimal, now time.Time) (*Meal, error) {
	m := &Meal{
		ID:        uuid.NewString(),
		CookID:    cookID,
		Name:      strings.TrimSpace(name),
		Price:     price,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate applies business validation rules
func (m *Meal) Validate() error {
	if err := validateStruct(m); err != nil {
		return err
	}
	if m.Price.LessThan(MinMealPrice) || m.Price.GreaterThan(MaxMealPrice) {
		return newValidationError("Price", "must be between "+MinMealPrice.String()+" and "+MaxMealPrice.String())
	}
	return nil
}
