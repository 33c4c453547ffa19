package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a cook's stock record for one ingredient
type InventoryItem struct {
	ID                string           `json:"id"`
	CookID            string           `json:"cook_id" validate:"required"`
	Name              string           `json:"name" validate:"required,max=100"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Unit              string           `json:"unit" validate:"required,max=20"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	Notes             string           `json:"notes,omitempty" validate:"max=500"`
	LastUpdated       time.Time        `json:"last_updated"`
}

func NewInventoryItem(cookID, name string, quantity decimal.Decimal, unit string, now time.Time) (*InventoryItem, error) {
	item := &InventoryItem{
		ID:          uuid.NewString(),
		CookID:      cookID,
		Name:        name,
		Quantity:    quantity,
		Unit:        unit,
		LastUpdated: now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *InventoryItem) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}
	if i.Quantity.IsNegative() {
		return newValidationError("Quantity", "must not be negative")
	}
	return nil
}

// IsLow reports whether the quantity is at or below the threshold.
func (i *InventoryItem) IsLow() bool {
	return i.LowStockThreshold != nil && i.Quantity.LessThanOrEqual(*i.LowStockThreshold)
}
