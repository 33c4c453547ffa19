package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/google/uuid"
)

const maxMutateAttempts = 3

// MenuDays is the read side of the menu-day manager the lifecycle needs.
type MenuDays interface {
	Find(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, bool, error)
}

type Service struct {
	store     interfaces.DocumentStore
	menus     MenuDays
	calendar  *calendar.Service
	directory interfaces.UserDirectory
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	timeZone  string
}

func NewService(store interfaces.DocumentStore, menus MenuDays, cal *calendar.Service, directory interfaces.UserDirectory, publisher interfaces.MessagePublisher, logger logger.Logger, timeZone string) *Service {
	return &Service{
		store:     store,
		menus:     menus,
		calendar:  cal,
		directory: directory,
		publisher: publisher,
		logger:    logger,
		timeZone:  timeZone,
	}
}

// CreateIfAbsent places a pending order unless one already exists for the
// (customer, cook, delivery day) triple. Every expected refusal is reported
// through the outcome, not as an error.
func (s *Service) CreateIfAbsent(ctx context.Context, req interfaces.CreateOrderCommand) (interfaces.CreateOrderResult, error) {
	reqID := logger.RequestID(ctx)

	// 1. Проверка входных данных
	if req.CookID == "" || req.CustomerID == "" || req.Date.IsZero() {
		return interfaces.CreateOrderResult{}, fmt.Errorf("%w: cook, customer and date are required", domain.ErrValidation)
	}
	if req.SlotIndex < 0 || req.SlotIndex > domain.SlotsPerDay {
		return interfaces.CreateOrderResult{}, fmt.Errorf("%w: slot %d", domain.ErrInvalidSlot, req.SlotIndex)
	}

	// 2. Поиск дня меню
	md, found, err := s.menus.Find(ctx, req.CookID, req.Date)
	if err != nil {
		return interfaces.CreateOrderResult{}, err
	}
	if !found {
		return s.noOp(ctx, interfaces.OutcomeNoMenu, req), nil
	}

	// 3. Расчет крайнего срока в часовом поясе дня
	tz := req.TimeZone
	if tz == "" {
		tz = md.TimeZone
	}
	if tz == "" {
		tz = s.timeZone
	}
	loc, err := s.calendar.ResolveTimeZone(tz)
	if err != nil {
		return interfaces.CreateOrderResult{}, err
	}
	cutoff := s.calendar.CutoffInstantUTC(loc, req.Date)
	now := s.calendar.Now()
	if md.Status == domain.MenuDayClosed || calendar.IsPast(cutoff, now) {
		return s.noOp(ctx, interfaces.OutcomeDayClosed, req), nil
	}

	// 4. Выбор слота
	var slot domain.DishSlot
	if req.SlotIndex == 0 {
		slot, found = md.FirstResolvableSlot()
	} else {
		slot, found = md.Slot(req.SlotIndex)
		found = found && !slot.IsEmpty()
	}
	if !found {
		return s.noOp(ctx, interfaces.OutcomeNoMenu, req), nil
	}

	// 5. Проверка существующего заказа
	var existing domain.Order
	found, err = s.store.FindOne(ctx, domain.CollectionOrders, interfaces.Filter{
		"customer_id":   req.CustomerID,
		"cook_id":       req.CookID,
		"delivery_date": req.Date.DeliveryKey(),
	}, &existing)
	if err != nil {
		return interfaces.CreateOrderResult{}, fmt.Errorf("failed to look up order: %w", err)
	}
	if found {
		return interfaces.CreateOrderResult{Order: &existing, Outcome: interfaces.OutcomeAlreadyExists}, nil
	}

	// 6. Снимок цены блюда
	var meal domain.Meal
	found, err = s.store.FindOne(ctx, domain.CollectionMeals, interfaces.Filter{"id": slot.MealID}, &meal)
	if err != nil {
		return interfaces.CreateOrderResult{}, fmt.Errorf("failed to load meal: %w", err)
	}
	if !found || !meal.IsActive {
		return s.noOp(ctx, interfaces.OutcomeMealUnavailable, req), nil
	}

	order := domain.NewOrder(md, slot, req.CustomerID, &meal, cutoff, now)
	order.TimeZone = tz
	order.CustomerName = s.displayName(ctx, req.CustomerID)

	// 7. Сохранение; проигравший гонку получает существующий заказ
	if err := s.store.InsertOne(ctx, domain.CollectionOrders, order); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			found, ferr := s.store.FindOne(ctx, domain.CollectionOrders, interfaces.Filter{
				"customer_id":   req.CustomerID,
				"cook_id":       req.CookID,
				"delivery_date": req.Date.DeliveryKey(),
			}, &existing)
			if ferr != nil {
				return interfaces.CreateOrderResult{}, fmt.Errorf("failed to look up order: %w", ferr)
			}
			if found {
				return interfaces.CreateOrderResult{Order: &existing, Outcome: interfaces.OutcomeAlreadyExists}, nil
			}
			return interfaces.CreateOrderResult{Outcome: interfaces.OutcomeAlreadyExists}, nil
		}
		s.logger.Error("db_insert_failed", "Failed to create order", reqID, nil, err)
		return interfaces.CreateOrderResult{}, fmt.Errorf("failed to create order: %w", err)
	}

	s.appendLog(ctx, order, req.CustomerID, "order placed")
	s.logger.Debug("order_created", "Order created", reqID, map[string]interface{}{
		"order_id":   order.ID,
		"cook_id":    order.CookID,
		"dish_index": order.DishIndex,
		"local_date": order.LocalDate.String(),
	})
	s.notify(ctx, interfaces.EventOrderCreated, order, "", req.CustomerID)

	return interfaces.CreateOrderResult{Order: order.Clone(), Outcome: interfaces.OutcomeCreated}, nil
}

// Cancel moves the order to Cancelled if now is strictly before its cutoff.
func (s *Service) Cancel(ctx context.Context, orderID string, now time.Time) (*domain.Order, error) {
	return s.mutate(ctx, orderID, "customer", func(o *domain.Order) error {
		return o.Cancel(now.UTC())
	})
}

// AdvanceStatus applies a cook-driven transition.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error) {
	return s.mutate(ctx, orderID, "cook", func(o *domain.Order) error {
		return o.TransitionTo(newStatus, s.calendar.Now())
	})
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	found, err := s.store.FindOne(ctx, domain.CollectionOrders, interfaces.Filter{"id": orderID}, &o)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return &o, nil
}

// mutate loads the order, applies change and writes it back only if the
// stored status is still the one change was checked against.
func (s *Service) mutate(ctx context.Context, orderID, changedBy string, change func(o *domain.Order) error) (*domain.Order, error) {
	reqID := logger.RequestID(ctx)

	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		o, err := s.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		oldStatus := o.Status

		if err := change(o); err != nil {
			details := map[string]interface{}{"order_id": orderID, "status": oldStatus}
			switch {
			case domain.IsBusinessRule(err):
				s.logger.Debug("order_change_rejected", err.Error(), reqID, details)
			case errors.Is(err, domain.ErrTerminalState), errors.Is(err, domain.ErrInvalidTransition):
				s.logger.Warn("order_transition_rejected", err.Error(), reqID, details)
			}
			return nil, err
		}

		n, err := s.store.UpdateFields(ctx, domain.CollectionOrders,
			interfaces.Filter{"id": o.ID, "status": oldStatus},
			map[string]any{
				"status":       o.Status,
				"updated_at":   o.UpdatedAt,
				"ready_at":     o.ReadyAt,
				"delivered_at": o.DeliveredAt,
				"cancelled_at": o.CancelledAt,
			})
		if err != nil {
			s.logger.Error("db_update_failed", "Failed to update order status", reqID, map[string]interface{}{"order_id": orderID}, err)
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		if n == 0 {
			continue
		}

		s.appendLog(ctx, o, changedBy, "")
		s.logger.Info("order_status_changed", "Order status updated", reqID, map[string]interface{}{
			"order_id":   o.ID,
			"old_status": oldStatus,
			"new_status": o.Status,
		})
		s.notify(ctx, interfaces.EventOrderStatus, o, oldStatus, changedBy)
		return o.Clone(), nil
	}

	return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrConflict)
}

func (s *Service) noOp(ctx context.Context, outcome interfaces.OrderOutcome, req interfaces.CreateOrderCommand) interfaces.CreateOrderResult {
	s.logger.Debug("order_not_created", "Order request was a no-op", logger.RequestID(ctx), map[string]interface{}{
		"outcome":     outcome,
		"cook_id":     req.CookID,
		"customer_id": req.CustomerID,
		"date":        req.Date.String(),
	})
	return interfaces.CreateOrderResult{Outcome: outcome}
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	if s.directory == nil {
		return ""
	}
	name, err := s.directory.ResolveDisplayName(ctx, userID)
	if err != nil {
		s.logger.Debug("display_name_unresolved", "Customer name not found", logger.RequestID(ctx), map[string]interface{}{"user_id": userID})
		return ""
	}
	return name
}

func (s *Service) appendLog(ctx context.Context, o *domain.Order, changedBy, notes string) {
	entry := &domain.StatusLog{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Status:    o.Status,
		ChangedBy: changedBy,
		ChangedAt: o.UpdatedAt,
		Notes:     notes,
	}
	if err := s.store.InsertOne(ctx, domain.CollectionOrderStatusLog, entry); err != nil {
		s.logger.Error("status_log_failed", "Failed to append status log", logger.RequestID(ctx), map[string]interface{}{"order_id": o.ID}, err)
	}
}

func (s *Service) notify(ctx context.Context, event string, o *domain.Order, oldStatus domain.OrderStatus, changedBy string) {
	if s.publisher == nil {
		return
	}
	msg := interfaces.StatusUpdateMessage{
		Event:      event,
		OrderID:    o.ID,
		CookID:     o.CookID,
		CustomerID: o.CustomerID,
		LocalDate:  o.LocalDate,
		OldStatus:  oldStatus,
		NewStatus:  o.Status,
		ChangedBy:  changedBy,
		Timestamp:  o.UpdatedAt,
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish order event", logger.RequestID(ctx), map[string]interface{}{"order_id": o.ID}, err)
	}
}
