package confirmation

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// Aggregator owns confirmations and the counters derived from them. Counts
// are always recomputed from stored records, never incremented.
type Aggregator struct {
	store    interfaces.DocumentStore
	calendar *calendar.Service
	logger   logger.Logger
	timeZone string
}

func NewAggregator(store interfaces.DocumentStore, cal *calendar.Service, logger logger.Logger, timeZone string) *Aggregator {
	return &Aggregator{
		store:    store,
		calendar: cal,
		logger:   logger,
		timeZone: timeZone,
	}
}

// CountConfirmed returns confirmed counts keyed by dish index 1..3.
func (a *Aggregator) CountConfirmed(ctx context.Context, cookID string, date domain.Date) (map[int]int, error) {
	var list []domain.Confirmation
	err := a.store.Find(ctx, domain.CollectionConfirmations, interfaces.Filter{
		"cook_id": cookID,
		"date":    date.String(),
		"status":  domain.ConfirmationConfirmed,
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmations: %w", err)
	}

	counts := make(map[int]int, domain.SlotsPerDay)
	for i := 1; i <= domain.SlotsPerDay; i++ {
		counts[i] = 0
	}
	for _, c := range list {
		if c.DishIndex >= 1 && c.DishIndex <= domain.SlotsPerDay {
			counts[c.DishIndex]++
		}
	}
	return counts, nil
}

func (a *Aggregator) TotalConfirmed(ctx context.Context, cookID string, date domain.Date) (int, error) {
	counts, err := a.CountConfirmed(ctx, cookID, date)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// RefreshMenuDayCounter sets md.ConfirmationsCount to the confirmed total and
// persists it when it drifted.
func (a *Aggregator) RefreshMenuDayCounter(ctx context.Context, md *domain.MenuDay) error {
	total, err := a.TotalConfirmed(ctx, md.CookID, md.Date)
	if err != nil {
		return err
	}
	if total == md.ConfirmationsCount {
		return nil
	}

	md.ConfirmationsCount = total
	_, err = a.store.UpdateFields(ctx, domain.CollectionMenuDays, interfaces.Filter{"id": md.ID}, map[string]any{
		"confirmations_count": total,
	})
	if err != nil {
		return fmt.Errorf("failed to store confirmations count: %w", err)
	}
	return nil
}

// CountOrdersByStatus returns order counts for every status, zeros included.
func (a *Aggregator) CountOrdersByStatus(ctx context.Context, cookID string, date domain.Date) (map[domain.OrderStatus]int, error) {
	var orders []domain.Order
	err := a.store.Find(ctx, domain.CollectionOrders, interfaces.Filter{
		"cook_id":       cookID,
		"delivery_date": date.DeliveryKey(),
	}, &orders)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	counts := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts, nil
}

// Confirm records a client's choice of one dish slot. Rejected once the day
// is closed or when the slot holds no meal.
func (a *Aggregator) Confirm(ctx context.Context, cookID, clientID string, date domain.Date, dishIndex int) (*domain.Confirmation, error) {
	if cookID == "" || clientID == "" {
		return nil, fmt.Errorf("%w: cook and client are required", domain.ErrValidation)
	}

	md, err := a.menuDay(ctx, cookID, date)
	if err != nil {
		return nil, err
	}
	if err := a.ensureOpen(md, domain.ErrDayClosed); err != nil {
		a.logger.Debug("confirmation_rejected", "Menu day is closed", logger.RequestID(ctx), map[string]interface{}{
			"cook_id": cookID,
			"date":    date.String(),
		})
		return nil, err
	}

	slot, ok := md.Slot(dishIndex)
	if !ok || slot.IsEmpty() {
		return nil, fmt.Errorf("%w: dish %d", domain.ErrInvalidSlot, dishIndex)
	}

	c, err := domain.NewConfirmation(cookID, clientID, date, dishIndex, a.calendar.Now())
	if err != nil {
		return nil, err
	}
	if err := a.store.InsertOne(ctx, domain.CollectionConfirmations, c); err != nil {
		return nil, fmt.Errorf("failed to store confirmation: %w", err)
	}

	if err := a.RefreshMenuDayCounter(ctx, md); err != nil {
		return nil, err
	}

	a.logger.Debug("confirmation_created", "Dish confirmed", logger.RequestID(ctx), map[string]interface{}{
		"confirmation_id": c.ID,
		"dish_index":      dishIndex,
	})
	return c, nil
}

// Cancel marks a confirmation cancelled. Cancelling twice returns the
// already-cancelled record.
func (a *Aggregator) Cancel(ctx context.Context, confirmationID string) (*domain.Confirmation, error) {
	var c domain.Confirmation
	found, err := a.store.FindOne(ctx, domain.CollectionConfirmations, interfaces.Filter{"id": confirmationID}, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmation: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: confirmation %s", domain.ErrNotFound, confirmationID)
	}
	if c.Status == domain.ConfirmationCancelled {
		return &c, nil
	}

	md, err := a.menuDay(ctx, c.CookID, c.Date)
	if err != nil {
		return nil, err
	}
	if err := a.ensureOpen(md, domain.ErrCutoffPassed); err != nil {
		return nil, err
	}

	now := a.calendar.Now()
	n, err := a.store.UpdateFields(ctx, domain.CollectionConfirmations,
		interfaces.Filter{"id": c.ID, "status": c.Status},
		map[string]any{"status": domain.ConfirmationCancelled, "cancelled_at": now})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel confirmation: %w", err)
	}
	if n == 0 {
		return a.reload(ctx, c.ID)
	}

	c.Status = domain.ConfirmationCancelled
	c.CancelledAt = &now

	if err := a.RefreshMenuDayCounter(ctx, md); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByDay returns a day's confirmations, oldest first.
func (a *Aggregator) ListByDay(ctx context.Context, cookID string, date domain.Date) ([]domain.Confirmation, error) {
	var list []domain.Confirmation
	err := a.store.Find(ctx, domain.CollectionConfirmations, interfaces.Filter{
		"cook_id": cookID,
		"date":    date.String(),
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmations: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (a *Aggregator) reload(ctx context.Context, id string) (*domain.Confirmation, error) {
	var c domain.Confirmation
	found, err := a.store.FindOne(ctx, domain.CollectionConfirmations, interfaces.Filter{"id": id}, &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: confirmation %s", domain.ErrNotFound, id)
	}
	return &c, nil
}

func (a *Aggregator) menuDay(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, error) {
	var md domain.MenuDay
	found, err := a.store.FindOne(ctx, domain.CollectionMenuDays, interfaces.Filter{
		"cook_id": cookID,
		"date":    date.String(),
	}, &md)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu day: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: menu day %s for cook %s", domain.ErrNotFound, date, cookID)
	}
	md.EnsureThreeSlots()
	return &md, nil
}

// ensureOpen returns rejection when the day is closed or its cutoff is past.
func (a *Aggregator) ensureOpen(md *domain.MenuDay, rejection error) error {
	if md.Status == domain.MenuDayClosed {
		return rejection
	}

	tz := md.TimeZone
	if tz == "" {
		tz = a.timeZone
	}
	loc, err := a.calendar.ResolveTimeZone(tz)
	if err != nil {
		return err
	}
	if calendar.IsPast(a.calendar.CutoffInstantUTC(loc, md.Date), a.calendar.Now()) {
		return rejection
	}
	return nil
}
