package tracking

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

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

func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderID:       order.ID,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
		CancelUntil:   order.CancelUntil,
		Cancellable:   !order.Status.IsTerminal() && !calendar.IsPast(order.CancelUntil, s.calendar.Now()),
	}
	return resp, nil
}

// GetOrderHistory returns the order's status log, oldest entry first.
func (s *Service) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}

	var entries []*domain.StatusLog
	if err := s.store.Find(ctx, domain.CollectionOrderStatusLog, interfaces.Filter{"order_id": orderID}, &entries); err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangedAt.Before(entries[j].ChangedAt)
	})
	return entries, nil
}

// ListForDay returns the cook's orders for one delivery day, sorted by dish
// and then by creation time.
func (s *Service) ListForDay(ctx context.Context, cookID string, date domain.Date) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.store.Find(ctx, domain.CollectionOrders, interfaces.Filter{
		"cook_id":       cookID,
		"delivery_date": date.DeliveryKey(),
	}, &orders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].DishIndex != orders[j].DishIndex {
			return orders[i].DishIndex < orders[j].DishIndex
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

// ListForCustomer returns a customer's orders, newest delivery day first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	if err := s.store.Find(ctx, domain.CollectionOrders, interfaces.Filter{"customer_id": customerID}, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].DeliveryDate.After(orders[j].DeliveryDate)
	})
	return orders, nil
}

func (s *Service) findOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	found, err := s.store.FindOne(ctx, domain.CollectionOrders, interfaces.Filter{"id": orderID}, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return &order, nil
}
