package event

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// Service keeps the cook's kitchen calendar: purchases, shifts and other
// entries that are not menu days.
type Service struct {
	store    interfaces.DocumentStore
	calendar *calendar.Service
	logger   logger.Logger
	timeZone string
}

func NewService(store interfaces.DocumentStore, cal *calendar.Service, logger logger.Logger, timeZone string) *Service {
	return &Service{
		store:    store,
		calendar: cal,
		logger:   logger,
		timeZone: timeZone,
	}
}

func (s *Service) Create(ctx context.Context, cookID string, cmd interfaces.EventCommand) (*domain.CalendarEvent, error) {
	loc, err := s.location(cmd.TimeZone)
	if err != nil {
		return nil, err
	}

	ev := domain.NewCalendarEvent(cookID, cmd.Title, cmd.Start, cmd.End, s.calendar.Now())
	apply(ev, cmd)
	ev.Normalize(loc)
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertOne(ctx, domain.CollectionEvents, ev); err != nil {
		return nil, fmt.Errorf("failed to store calendar event: %w", err)
	}

	s.logger.Debug("event_created", "Calendar event created", logger.RequestID(ctx), map[string]interface{}{
		"event_id": ev.ID,
		"cook_id":  cookID,
		"category": ev.Category,
	})
	return ev, nil
}

// Get returns one of the cook's events. Events of other cooks are not found.
func (s *Service) Get(ctx context.Context, cookID, eventID string) (*domain.CalendarEvent, error) {
	var ev domain.CalendarEvent
	found, err := s.store.FindOne(ctx, domain.CollectionEvents, interfaces.Filter{"id": eventID, "cook_id": cookID}, &ev)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar event: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: calendar event %s", domain.ErrNotFound, eventID)
	}
	return &ev, nil
}

// ListByDay returns the events touching the local day, ordered by start.
func (s *Service) ListByDay(ctx context.Context, cookID string, day domain.Date) ([]*domain.CalendarEvent, error) {
	return s.ListRange(ctx, cookID, day, day)
}

// ListRange returns the events overlapping [start, end], ordered by start.
func (s *Service) ListRange(ctx context.Context, cookID string, start, end domain.Date) ([]*domain.CalendarEvent, error) {
	if end.Before(start) {
		start, end = end, start
	}

	events := make([]*domain.CalendarEvent, 0)
	err := s.store.Find(ctx, domain.CollectionEvents, interfaces.Filter{
		"cook_id":   cookID,
		"start_day": interfaces.Range{To: end.String()},
		"end_day":   interfaces.Range{From: start.String()},
	}, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// Update replaces every editable field of the event. Creation time and owner
// are kept.
func (s *Service) Update(ctx context.Context, cookID, eventID string, cmd interfaces.EventCommand) (*domain.CalendarEvent, error) {
	existing, err := s.Get(ctx, cookID, eventID)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(cmd.TimeZone)
	if err != nil {
		return nil, err
	}

	ev := domain.NewCalendarEvent(cookID, cmd.Title, cmd.Start, cmd.End, s.calendar.Now())
	ev.ID = existing.ID
	ev.CreatedAt = existing.CreatedAt
	apply(ev, cmd)
	ev.Normalize(loc)
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	n, err := s.store.UpdateFields(ctx, domain.CollectionEvents, interfaces.Filter{"id": eventID, "cook_id": cookID}, map[string]any{
		"title":           ev.Title,
		"description":     ev.Description,
		"start":           ev.Start,
		"end":             ev.End,
		"time_zone":       ev.TimeZone,
		"category":        ev.Category,
		"priority":        ev.Priority,
		"status":          ev.Status,
		"assignees":       ev.Assignees,
		"recurrence_rule": ev.RecurrenceRule,
		"start_day":       ev.StartDay,
		"end_day":         ev.EndDay,
		"updated_at":      ev.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar event: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: calendar event %s", domain.ErrNotFound, eventID)
	}
	return ev, nil
}

func (s *Service) Delete(ctx context.Context, cookID, eventID string) error {
	n, err := s.store.Delete(ctx, domain.CollectionEvents, interfaces.Filter{"id": eventID, "cook_id": cookID})
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: calendar event %s", domain.ErrNotFound, eventID)
	}
	return nil
}

func (s *Service) location(tz string) (*time.Location, error) {
	if tz == "" {
		tz = s.timeZone
	}
	return s.calendar.ResolveTimeZone(tz)
}

func apply(ev *domain.CalendarEvent, cmd interfaces.EventCommand) {
	ev.Description = cmd.Description
	ev.Category = cmd.Category
	ev.Priority = cmd.Priority
	ev.Status = cmd.Status
	ev.Assignees = cmd.Assignees
	ev.RecurrenceRule = cmd.RecurrenceRule
}
