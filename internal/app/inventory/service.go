package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/shopspring/decimal"
)

const maxAdjustAttempts = 3

type Service struct {
	store    interfaces.DocumentStore
	calendar *calendar.Service
	logger   logger.Logger
}

func NewService(store interfaces.DocumentStore, cal *calendar.Service, logger logger.Logger) *Service {
	return &Service{
		store:    store,
		calendar: cal,
		logger:   logger,
	}
}

func (s *Service) Add(ctx context.Context, cmd interfaces.AddInventoryCommand) (*domain.InventoryItem, error) {
	item, err := domain.NewInventoryItem(cmd.CookID, cmd.Name, cmd.Quantity, cmd.Unit, s.calendar.Now())
	if err != nil {
		return nil, err
	}
	item.LowStockThreshold = cmd.LowStockThreshold
	item.Notes = cmd.Notes
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertOne(ctx, domain.CollectionInventory, item); err != nil {
		return nil, fmt.Errorf("failed to store inventory item: %w", err)
	}
	return item, nil
}

// ListByCook returns the cook's items ordered by name.
func (s *Service) ListByCook(ctx context.Context, cookID string) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem
	if err := s.store.Find(ctx, domain.CollectionInventory, interfaces.Filter{"cook_id": cookID}, &items); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// AdjustQuantity adds delta to the stored quantity. The write is applied only
// if nobody changed the item since it was read; a negative result is rejected.
func (s *Service) AdjustQuantity(ctx context.Context, itemID string, delta decimal.Decimal) (*domain.InventoryItem, error) {
	for attempt := 0; attempt < maxAdjustAttempts; attempt++ {
		item, err := s.get(ctx, itemID)
		if err != nil {
			return nil, err
		}

		prevQuantity, prevUpdated := item.Quantity, item.LastUpdated
		item.Quantity = item.Quantity.Add(delta)
		item.LastUpdated = s.calendar.Now()
		if err := item.Validate(); err != nil {
			return nil, err
		}

		n, err := s.store.UpdateFields(ctx, domain.CollectionInventory,
			interfaces.Filter{"id": item.ID, "quantity": prevQuantity, "last_updated": prevUpdated},
			map[string]any{"quantity": item.Quantity, "last_updated": item.LastUpdated})
		if err != nil {
			return nil, fmt.Errorf("failed to adjust inventory: %w", err)
		}
		if n == 1 {
			if item.IsLow() {
				s.logger.Warn("inventory_low", "Stock at or below threshold", logger.RequestID(ctx), map[string]interface{}{
					"item_id":  item.ID,
					"quantity": item.Quantity.String(),
				})
			}
			return item, nil
		}
	}
	return nil, fmt.Errorf("inventory item %s: %w", itemID, domain.ErrConflict)
}

// LowStock returns the cook's items at or below their threshold.
func (s *Service) LowStock(ctx context.Context, cookID string) ([]*domain.InventoryItem, error) {
	items, err := s.ListByCook(ctx, cookID)
	if err != nil {
		return nil, err
	}
	low := make([]*domain.InventoryItem, 0)
	for _, item := range items {
		if item.IsLow() {
			low = append(low, item)
		}
	}
	return low, nil
}

// Update replaces the editable fields of one of the cook's items. Items owned
// by another cook are reported as not found.
func (s *Service) Update(ctx context.Context, cookID, itemID string, cmd interfaces.UpdateInventoryCommand) (*domain.InventoryItem, error) {
	item, err := s.get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CookID != cookID {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}

	item.Name = cmd.Name
	item.Quantity = cmd.Quantity
	item.Unit = cmd.Unit
	item.LowStockThreshold = cmd.LowStockThreshold
	item.Notes = cmd.Notes
	item.LastUpdated = s.calendar.Now()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	n, err := s.store.UpdateFields(ctx, domain.CollectionInventory,
		interfaces.Filter{"id": itemID, "cook_id": cookID},
		map[string]any{
			"name":                item.Name,
			"quantity":            item.Quantity,
			"unit":                item.Unit,
			"low_stock_threshold": item.LowStockThreshold,
			"notes":               item.Notes,
			"last_updated":        item.LastUpdated,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}
	return item, nil
}

// Delete removes one of the cook's items.
func (s *Service) Delete(ctx context.Context, cookID, itemID string) error {
	n, err := s.store.Delete(ctx, domain.CollectionInventory, interfaces.Filter{"id": itemID, "cook_id": cookID})
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}

	s.logger.Info("inventory_deleted", "Inventory item removed", logger.RequestID(ctx), map[string]interface{}{
		"item_id": itemID,
		"cook_id": cookID,
	})
	return nil
}

func (s *Service) get(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	found, err := s.store.FindOne(ctx, domain.CollectionInventory, interfaces.Filter{"id": itemID}, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory item: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}
	return &item, nil
}
