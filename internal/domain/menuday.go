package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// SlotsPerDay is the fixed number of dish slots on every menu day.
const SlotsPerDay = 3

type MenuDayStatus string

const (
	MenuDayDraft     MenuDayStatus = "draft"
	MenuDayPublished MenuDayStatus = "published"
	MenuDayClosed    MenuDayStatus = "closed"
)

// DishSlot represents one of the three dish positions of a menu day
type DishSlot struct {
	Index  int    `json:"index"`
	MealID string `json:"meal_id"`
	Name   string `json:"name"`
	Notes  string `json:"notes"`
}

func (s DishSlot) IsEmpty() bool {
	return strings.TrimSpace(s.MealID) == ""
}

// MenuDay represents a cook's menu for one local delivery day
type MenuDay struct {
	ID                 string        `json:"id"`
	CookID             string        `json:"cook_id"`
	Date               Date          `json:"date"`
	TimeZone           string        `json:"time_zone"`
	Status             MenuDayStatus `json:"status"`
	Dishes             []DishSlot    `json:"dishes"`
	ConfirmationsCount int           `json:"confirmations_count"`
	PublishedAt        *time.Time    `json:"published_at,omitempty"`
	ClosedAt           *time.Time    `json:"closed_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// MenuDayKey derives the storage identity of a (cook, date) pair, so concurrent
// creators of the same day always produce the same id.
func MenuDayKey(cookID string, date Date) string {
	sum := sha1.Sum([]byte(cookID + "|" + date.String()))
	return hex.EncodeToString(sum[:12])
}

// NewMenuDay creates a draft menu day with three empty slots
func NewMenuDay(cookID string, date Date, timeZone string, now time.Time) *MenuDay {
	md := &MenuDay{
		ID:        MenuDayKey(cookID, date),
		CookID:    cookID,
		Date:      date,
		TimeZone:  timeZone,
		Status:    MenuDayDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	md.EnsureThreeSlots()
	return md
}

// EnsureThreeSlots normalizes the slots to exactly indices 1..3 and clears
// repeated meal references. The result depends only on the set of input slots,
// not their order. Reports whether anything changed.
func (m *MenuDay) EnsureThreeSlots() bool {
	before := append([]DishSlot(nil), m.Dishes...)

	candidates := make([]DishSlot, 0, len(m.Dishes))
	for _, s := range m.Dishes {
		if s.Index >= 1 && s.Index <= SlotsPerDay {
			candidates = append(candidates, s)
		}
	}

	// Для одинакового индекса выигрывает слот с блюдом, затем меньший meal_id.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.IsEmpty() != b.IsEmpty() {
			return !a.IsEmpty()
		}
		if a.MealID != b.MealID {
			return a.MealID < b.MealID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Notes < b.Notes
	})

	slots := make([]DishSlot, SlotsPerDay)
	filled := make([]bool, SlotsPerDay)
	for _, s := range candidates {
		if filled[s.Index-1] {
			continue
		}
		slots[s.Index-1] = s
		filled[s.Index-1] = true
	}

	seen := make(map[string]bool, SlotsPerDay)
	for i := range slots {
		slots[i].Index = i + 1
		if slots[i].IsEmpty() {
			slots[i].MealID = ""
			continue
		}
		key := strings.ToLower(strings.TrimSpace(slots[i].MealID))
		if seen[key] {
			slots[i] = DishSlot{Index: i + 1}
			continue
		}
		seen[key] = true
	}

	m.Dishes = slots
	return !equalSlots(before, slots)
}

func equalSlots(a, b []DishSlot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ApplyAutoClose flips the day to Closed once now reaches cutoff. closedAt is
// stamped only on the first observation. Reports whether the status changed.
func (m *MenuDay) ApplyAutoClose(cutoff, now time.Time) bool {
	if m.Status == MenuDayClosed || now.Before(cutoff) {
		return false
	}
	m.Status = MenuDayClosed
	if m.ClosedAt == nil {
		closedAt := now
		m.ClosedAt = &closedAt
	}
	m.UpdatedAt = now
	return true
}

// Publish merges the given slots over the current ones and marks the day
// published. The caller must have applied auto-close first.
func (m *MenuDay) Publish(slots []DishSlot, now time.Time) error {
	if m.Status == MenuDayClosed {
		return ErrDayClosed
	}

	merged := make([]DishSlot, 0, SlotsPerDay)
	assigned := make(map[int]DishSlot, len(slots))
	for _, s := range slots {
		if s.Index < 1 || s.Index > SlotsPerDay {
			return ErrInvalidSlot
		}
		assigned[s.Index] = s
	}
	for _, cur := range m.Dishes {
		if s, ok := assigned[cur.Index]; ok {
			merged = append(merged, s)
			continue
		}
		merged = append(merged, cur)
	}
	m.Dishes = merged
	m.EnsureThreeSlots()

	m.Status = MenuDayPublished
	if m.PublishedAt == nil {
		publishedAt := now
		m.PublishedAt = &publishedAt
	}
	m.UpdatedAt = now
	return nil
}

// Slot returns the slot with the given index.
func (m *MenuDay) Slot(index int) (DishSlot, bool) {
	for _, s := range m.Dishes {
		if s.Index == index {
			return s, true
		}
	}
	return DishSlot{}, false
}

// FirstResolvableSlot returns the lowest-index slot that references a meal.
func (m *MenuDay) FirstResolvableSlot() (DishSlot, bool) {
	for _, s := range m.Dishes {
		if !s.IsEmpty() {
			return s, true
		}
	}
	return DishSlot{}, false
}

// IsComplete reports whether every slot references a meal.
func (m *MenuDay) IsComplete() bool {
	for _, s := range m.Dishes {
		if s.IsEmpty() {
			return false
		}
	}
	return len(m.Dishes) == SlotsPerDay
}

// Clone returns a deep copy safe to hand out to callers.
func (m *MenuDay) Clone() *MenuDay {
	c := *m
	c.Dishes = append([]DishSlot(nil), m.Dishes...)
	if m.PublishedAt != nil {
		t := *m.PublishedAt
		c.PublishedAt = &t
	}
	if m.ClosedAt != nil {
		t := *m.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}
