package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"golang.org/x/sync/singleflight"
)

const maxPublishAttempts = 3

// Counter refreshes the derived confirmations counter of a menu day.
type Counter interface {
	RefreshMenuDayCounter(ctx context.Context, md *domain.MenuDay) error
}

// Manager owns menu-day documents. Callers only ever receive copies.
type Manager struct {
	store     interfaces.DocumentStore
	calendar  *calendar.Service
	counter   Counter
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	timeZone  string
	inflight  singleflight.Group
}

func NewManager(store interfaces.DocumentStore, cal *calendar.Service, counter Counter, publisher interfaces.MessagePublisher, logger logger.Logger, timeZone string) *Manager {
	return &Manager{
		store:     store,
		calendar:  cal,
		counter:   counter,
		publisher: publisher,
		logger:    logger,
		timeZone:  timeZone,
	}
}

// GetOrCreate returns the cook's menu day for date, creating a draft with
// three empty slots on first reference.
func (m *Manager) GetOrCreate(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, error) {
	if cookID == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: cook and date are required", domain.ErrValidation)
	}

	// Общая загрузка не зависит от отмены первого вызывающего
	shared := context.WithoutCancel(ctx)
	ch := m.inflight.DoChan(domain.MenuDayKey(cookID, date), func() (interface{}, error) {
		return m.loadOrCreate(shared, cookID, date)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.MenuDay).Clone(), nil
	}
}

// Find returns the normalized menu day without creating one.
func (m *Manager) Find(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, bool, error) {
	md, found, err := m.load(ctx, cookID, date)
	if err != nil || !found {
		return nil, found, err
	}
	if err := m.normalize(ctx, md); err != nil {
		return nil, false, err
	}
	return md.Clone(), true, nil
}

// Publish assigns dishes to slots and marks the day published. Slots not
// named in dishes keep their current meal.
func (m *Manager) Publish(ctx context.Context, cookID string, date domain.Date, dishes []domain.DishSlot) (*domain.MenuDay, error) {
	resolved, err := m.resolveDishes(ctx, cookID, dishes)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		md, err := m.loadOrCreate(ctx, cookID, date)
		if err != nil {
			return nil, err
		}
		if md.Status == domain.MenuDayClosed {
			m.logger.Debug("publish_rejected", "Menu day is closed", logger.RequestID(ctx), map[string]interface{}{
				"menu_day_id": md.ID,
			})
			return nil, fmt.Errorf("%w: %s", domain.ErrDayClosed, date)
		}

		prevUpdatedAt := md.UpdatedAt
		firstPublish := md.PublishedAt == nil
		if err := md.Publish(resolved, m.calendar.Now()); err != nil {
			return nil, err
		}

		// Запись проходит только если документ не менялся с момента чтения.
		n, err := m.store.UpdateFields(ctx, domain.CollectionMenuDays,
			interfaces.Filter{"id": md.ID, "updated_at": prevUpdatedAt},
			map[string]any{
				"dishes":       md.Dishes,
				"status":       md.Status,
				"published_at": md.PublishedAt,
				"updated_at":   md.UpdatedAt,
			})
		if err != nil {
			return nil, fmt.Errorf("failed to publish menu day: %w", err)
		}
		if n == 0 {
			continue
		}

		m.logger.Info("menu_published", "Menu day published", logger.RequestID(ctx), map[string]interface{}{
			"menu_day_id":   md.ID,
			"cook_id":       cookID,
			"date":          date.String(),
			"first_publish": firstPublish,
		})
		m.notify(ctx, interfaces.EventMenuPublished, md)
		return md.Clone(), nil
	}

	return nil, fmt.Errorf("menu day %s: %w", domain.MenuDayKey(cookID, date), domain.ErrConflict)
}

// ListRange returns the cook's existing menu days between start and end
// inclusive, ordered by date.
func (m *Manager) ListRange(ctx context.Context, cookID string, start, end domain.Date) ([]*domain.MenuDay, error) {
	if end.Before(start) {
		start, end = end, start
	}

	var days []*domain.MenuDay
	err := m.store.Find(ctx, domain.CollectionMenuDays, interfaces.Filter{
		"cook_id": cookID,
		"date":    interfaces.Range{From: start.String(), To: end.String()},
	}, &days)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu days: %w", err)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	out := make([]*domain.MenuDay, 0, len(days))
	for _, md := range days {
		if err := m.normalize(ctx, md); err != nil {
			return nil, err
		}
		out = append(out, md.Clone())
	}
	return out, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, error) {
	md, found, err := m.load(ctx, cookID, date)
	if err != nil {
		return nil, err
	}

	if !found {
		md = domain.NewMenuDay(cookID, date, m.timeZone, m.calendar.Now())
		err := m.store.InsertOne(ctx, domain.CollectionMenuDays, md)
		switch {
		case err == nil:
			m.logger.Debug("menu_day_created", "Draft menu day created", logger.RequestID(ctx), map[string]interface{}{
				"menu_day_id": md.ID,
				"cook_id":     cookID,
				"date":        date.String(),
			})
		case errors.Is(err, domain.ErrDuplicateKey):
			// Другой процесс создал тот же день раньше нас.
			md, found, err = m.load(ctx, cookID, date)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("menu day %s vanished after duplicate insert", domain.MenuDayKey(cookID, date))
			}
		default:
			return nil, fmt.Errorf("failed to create menu day: %w", err)
		}
	}

	if err := m.normalize(ctx, md); err != nil {
		return nil, err
	}
	return md, nil
}

func (m *Manager) load(ctx context.Context, cookID string, date domain.Date) (*domain.MenuDay, bool, error) {
	var md domain.MenuDay
	found, err := m.store.FindOne(ctx, domain.CollectionMenuDays, interfaces.Filter{
		"cook_id": cookID,
		"date":    date.String(),
	}, &md)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load menu day: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &md, true, nil
}

// normalize enforces the three-slot layout, applies auto-close against the
// current clock and refreshes the confirmations counter. Only fields that
// changed are written back.
func (m *Manager) normalize(ctx context.Context, md *domain.MenuDay) error {
	fields := map[string]any{}

	if md.EnsureThreeSlots() {
		fields["dishes"] = md.Dishes
	}
	if md.TimeZone == "" {
		md.TimeZone = m.timeZone
		fields["time_zone"] = md.TimeZone
	}

	loc, err := m.calendar.ResolveTimeZone(md.TimeZone)
	if err != nil {
		return err
	}

	closed := md.ApplyAutoClose(m.calendar.CutoffInstantUTC(loc, md.Date), m.calendar.Now())
	if closed {
		fields["status"] = md.Status
		fields["closed_at"] = md.ClosedAt
		fields["updated_at"] = md.UpdatedAt
	}

	if len(fields) > 0 {
		if _, err := m.store.UpdateFields(ctx, domain.CollectionMenuDays, interfaces.Filter{"id": md.ID}, fields); err != nil {
			return fmt.Errorf("failed to normalize menu day: %w", err)
		}
	}
	if closed {
		m.logger.Info("menu_closed", "Menu day closed at cutoff", logger.RequestID(ctx), map[string]interface{}{
			"menu_day_id": md.ID,
		})
		m.notify(ctx, interfaces.EventMenuClosed, md)
	}

	if m.counter != nil {
		if err := m.counter.RefreshMenuDayCounter(ctx, md); err != nil {
			return err
		}
	}
	return nil
}

// resolveDishes checks that each referenced meal belongs to the cook and is
// active, and fills in display names.
func (m *Manager) resolveDishes(ctx context.Context, cookID string, dishes []domain.DishSlot) ([]domain.DishSlot, error) {
	out := make([]domain.DishSlot, 0, len(dishes))
	for _, d := range dishes {
		if d.Index < 1 || d.Index > domain.SlotsPerDay {
			return nil, fmt.Errorf("%w: index %d", domain.ErrInvalidSlot, d.Index)
		}
		if d.IsEmpty() {
			out = append(out, domain.DishSlot{Index: d.Index, Notes: d.Notes})
			continue
		}

		var meal domain.Meal
		found, err := m.store.FindOne(ctx, domain.CollectionMeals, interfaces.Filter{"id": d.MealID}, &meal)
		if err != nil {
			return nil, fmt.Errorf("failed to load meal: %w", err)
		}
		if !found || meal.CookID != cookID || !meal.IsActive {
			return nil, fmt.Errorf("%w: meal %s is not available for slot %d", domain.ErrInvalidSlot, d.MealID, d.Index)
		}

		d.Name = meal.Name
		out = append(out, d)
	}
	return out, nil
}

func (m *Manager) notify(ctx context.Context, event string, md *domain.MenuDay) {
	if m.publisher == nil {
		return
	}
	msg := interfaces.MenuDayMessage{
		Event:     event,
		MenuDayID: md.ID,
		CookID:    md.CookID,
		Date:      md.Date,
		Status:    md.Status,
		Dishes:    md.Dishes,
		Timestamp: m.calendar.Now(),
	}
	if err := m.publisher.PublishMenuDay(ctx, msg); err != nil {
		m.logger.Error("menu_event_failed", "Failed to publish menu day event", logger.RequestID(ctx), map[string]interface{}{
			"menu_day_id": md.ID,
			"event":       event,
		}, err)
	}
}
