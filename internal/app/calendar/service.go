package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
)

// DefaultBusinessDays is the length of a scheduling week.
const DefaultBusinessDays = 5

// Service resolves time zones and derives business days and cutoff instants.
// It never touches storage.
type Service struct {
	cutoff domain.ClockTime
	now    func() time.Time

	mu    sync.RWMutex
	zones map[string]*time.Location
}

func NewService(cutoff domain.ClockTime, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		cutoff: cutoff,
		now:    now,
		zones:  make(map[string]*time.Location),
	}
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

func (s *Service) Cutoff() domain.ClockTime {
	return s.cutoff
}

// ResolveTimeZone loads an IANA zone. Empty and "Local" are rejected so
// results never depend on the host configuration.
func (s *Service) ResolveTimeZone(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "Local" {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTimeZone, id)
	}

	s.mu.RLock()
	loc, ok := s.zones[id]
	s.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTimeZone, id)
	}

	s.mu.Lock()
	s.zones[id] = loc
	s.mu.Unlock()
	return loc, nil
}

// Today returns the current local date in loc.
func (s *Service) Today(loc *time.Location) domain.Date {
	return domain.DateOf(s.now().In(loc))
}

// NextBusinessDays returns count consecutive days starting next Monday. On a
// Monday it starts a week later, never today.
func (s *Service) NextBusinessDays(loc *time.Location, count int) []domain.Date {
	if count <= 0 {
		count = DefaultBusinessDays
	}

	today := s.Today(loc)
	offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	start := today.AddDays(offset)

	days := make([]domain.Date, count)
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

// CutoffInstantUTC returns the configured cutoff of date in loc, as UTC.
func (s *Service) CutoffInstantUTC(loc *time.Location, date domain.Date) time.Time {
	return CutoffAt(loc, date, s.cutoff)
}

// CutoffAt composes date and a local clock time in loc and converts to UTC.
// Zone rules, including DST, come from loc.
func CutoffAt(loc *time.Location, date domain.Date, at domain.ClockTime) time.Time {
	return time.Date(date.Year, date.Month, date.Day, at.Hour, at.Minute, 0, 0, loc).UTC()
}

// IsPast reports whether now has reached instant.
func IsPast(instant, now time.Time) bool {
	return !now.Before(instant)
}
