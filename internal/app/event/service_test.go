package event

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bogota = "America/Bogota"

var (
	monday  = domain.Date{Year: 2024, Month: time.June, Day: 10}
	tuesday = domain.Date{Year: 2024, Month: time.June, Day: 11}
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), domain.Indexes()))
	now := time.Date(2024, time.June, 10, 11, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	return NewService(store, cal, logger.NewNop(), bogota), store
}

// at builds an instant from Bogota wall time (UTC-5).
func at(day domain.Date, hour int) time.Time {
	return time.Date(day.Year, day.Month, day.Day, hour+5, 0, 0, 0, time.UTC)
}

func TestCreateAppliesDefaultsAndRepairsEnd(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ev, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{
		Title: "  Market run  ",
		Start: at(monday, 9),
		End:   at(monday, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Market run", ev.Title)
	assert.Equal(t, domain.EventOther, ev.Category)
	assert.Equal(t, domain.PriorityMedium, ev.Priority)
	assert.Equal(t, domain.EventPlanned, ev.Status)
	assert.Equal(t, at(monday, 10), ev.End)
	assert.Equal(t, bogota, ev.TimeZone)
	assert.Empty(t, ev.Assignees)

	got, err := svc.Get(ctx, "cook-1", ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Title, got.Title)

	_, err = svc.Get(ctx, "cook-2", ev.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRejectsInvalidEvent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{Start: at(monday, 9)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Shift", Start: at(monday, 9), Category: "party"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Shift"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Shift", Start: at(monday, 9), TimeZone: "Mars/Olympus"})
	assert.ErrorIs(t, err, domain.ErrUnknownTimeZone)
}

func TestListByDayAndRange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	late, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Inventory count", Start: at(monday, 16), End: at(monday, 17)})
	require.NoError(t, err)
	// Ночная смена заходит во вторник по местному времени
	overnight, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Night prep", Start: at(monday, 22), End: at(tuesday, 2), Category: domain.EventShift})
	require.NoError(t, err)
	early, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Delivery", Start: at(monday, 7), End: at(monday, 8), Category: domain.EventDelivery})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "cook-2", interfaces.EventCommand{Title: "Other kitchen", Start: at(monday, 9), End: at(monday, 10)})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-10", overnight.StartDay)
	assert.Equal(t, "2024-06-11", overnight.EndDay)

	day, err := svc.ListByDay(ctx, "cook-1", monday)
	require.NoError(t, err)
	require.Len(t, day, 3)
	assert.Equal(t, []string{early.ID, late.ID, overnight.ID}, []string{day[0].ID, day[1].ID, day[2].ID})

	next, err := svc.ListByDay(ctx, "cook-1", tuesday)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, overnight.ID, next[0].ID)

	week, err := svc.ListRange(ctx, "cook-1", tuesday.AddDays(3), tuesday)
	require.NoError(t, err)
	assert.Len(t, week, 1)

	none, err := svc.ListRange(ctx, "cook-1", tuesday.AddDays(1), tuesday.AddDays(5))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	ev, err := svc.Create(ctx, "cook-1", interfaces.EventCommand{Title: "Oven service", Start: at(monday, 9), Category: domain.EventMaintenance})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "cook-2", ev.ID, interfaces.EventCommand{Title: "Stolen", Start: at(monday, 9)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := svc.Update(ctx, "cook-1", ev.ID, interfaces.EventCommand{
		Title:          "Oven service",
		Start:          at(tuesday, 9),
		End:            at(tuesday, 11),
		Category:       domain.EventMaintenance,
		Priority:       domain.PriorityHigh,
		Status:         domain.EventInProgress,
		Assignees:      []string{"Ana", "Bruno"},
		RecurrenceRule: "FREQ=MONTHLY",
	})
	require.NoError(t, err)
	assert.Equal(t, ev.ID, updated.ID)
	assert.Equal(t, ev.CreatedAt, updated.CreatedAt)

	got, err := svc.Get(ctx, "cook-1", ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, domain.EventInProgress, got.Status)
	assert.Equal(t, []string{"Ana", "Bruno"}, got.Assignees)
	assert.Equal(t, "2024-06-11", got.StartDay)

	moved, err := svc.ListByDay(ctx, "cook-1", monday)
	require.NoError(t, err)
	assert.Empty(t, moved)

	assert.ErrorIs(t, svc.Delete(ctx, "cook-2", ev.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "cook-1", ev.ID))
	assert.Equal(t, 0, store.Count(domain.CollectionEvents))

	_, err = svc.Update(ctx, "cook-1", ev.ID, interfaces.EventCommand{Title: "Gone", Start: at(monday, 9)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
