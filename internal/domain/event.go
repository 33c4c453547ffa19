package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventCategory string

const (
	EventPurchase    EventCategory = "purchase"
	EventDelivery    EventCategory = "delivery"
	EventShift       EventCategory = "shift"
	EventMaintenance EventCategory = "maintenance"
	EventAdmin       EventCategory = "admin"
	EventMeeting     EventCategory = "meeting"
	EventOther       EventCategory = "other"
)

type EventPriority string

const (
	PriorityLow    EventPriority = "low"
	PriorityMedium EventPriority = "medium"
	PriorityHigh   EventPriority = "high"
)

type EventStatus string

const (
	EventPlanned    EventStatus = "planned"
	EventInProgress EventStatus = "in_progress"
	EventDone       EventStatus = "done"
	EventCancelled  EventStatus = "cancelled"
)

// DefaultEventDuration replaces an end that does not follow the start.
const DefaultEventDuration = time.Hour

// CalendarEvent is a cook's non-menu entry on the kitchen calendar: purchases,
// shifts, maintenance and the like. StartDay and EndDay are the local days the
// event spans.
type CalendarEvent struct {
	ID             string        `json:"id"`
	CookID         string        `json:"cook_id" validate:"required"`
	Title          string        `json:"title" validate:"required,max=200"`
	Description    string        `json:"description" validate:"max=2000"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	TimeZone       string        `json:"time_zone"`
	Category       EventCategory `json:"category" validate:"oneof=purchase delivery shift maintenance admin meeting other"`
	Priority       EventPriority `json:"priority" validate:"oneof=low medium high"`
	Status         EventStatus   `json:"status" validate:"oneof=planned in_progress done cancelled"`
	Assignees      []string      `json:"assignees" validate:"max=20,dive,required,max=100"`
	RecurrenceRule string        `json:"recurrence_rule,omitempty" validate:"max=500"`
	StartDay       string        `json:"start_day"`
	EndDay         string        `json:"end_day"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func NewCalendarEvent(cookID, title string, start, end time.Time, now time.Time) *CalendarEvent {
	return &CalendarEvent{
		ID:        uuid.NewString(),
		CookID:    cookID,
		Title:     strings.TrimSpace(title),
		Start:     start,
		End:       end,
		Category:  EventOther,
		Priority:  PriorityMedium,
		Status:    EventPlanned,
		Assignees: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Normalize fills defaults, repairs the end instant and recomputes the local
// day keys in loc.
func (e *CalendarEvent) Normalize(loc *time.Location) {
	if e.Category == "" {
		e.Category = EventOther
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	if e.Status == "" {
		e.Status = EventPlanned
	}
	if e.Assignees == nil {
		e.Assignees = []string{}
	}
	if !e.Start.IsZero() && e.End.Before(e.Start) {
		e.End = e.Start.Add(DefaultEventDuration)
	}

	e.TimeZone = loc.String()
	e.Start = e.Start.UTC()
	e.End = e.End.UTC()
	e.StartDay = DateOf(e.Start.In(loc)).String()
	e.EndDay = DateOf(e.End.In(loc)).String()
}

func (e *CalendarEvent) Validate() error {
	if err := validateStruct(e); err != nil {
		return err
	}
	if e.Start.IsZero() {
		return newValidationError("Start", "is required")
	}
	return nil
}
