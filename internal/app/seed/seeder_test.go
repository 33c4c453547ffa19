package seed

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/app/confirmation"
	"github.com/YelzhanWeb/lunchmate/internal/app/meal"
	"github.com/YelzhanWeb/lunchmate/internal/app/menu"
	"github.com/YelzhanWeb/lunchmate/internal/app/order"
	"github.com/YelzhanWeb/lunchmate/internal/app/review"
	"github.com/YelzhanWeb/lunchmate/internal/app/user"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bogota = "America/Bogota"

var seededCollections = []string{
	domain.CollectionUsers,
	domain.CollectionMeals,
	domain.CollectionMenuDays,
	domain.CollectionOrders,
	domain.CollectionReviews,
}

func newSeeder(t *testing.T) (*Seeder, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), domain.Indexes()))

	// Понедельник, 06:00 в Боготе
	now := time.Date(2024, time.June, 10, 11, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	log := logger.NewNop()

	users := user.NewService(store, cal, log)
	agg := confirmation.NewAggregator(store, cal, log, bogota)
	menus := menu.NewManager(store, cal, agg, nil, log, bogota)
	orders := order.NewService(store, menus, cal, users, nil, log, bogota)

	return NewSeeder(
		users,
		meal.NewService(store, users, cal, log),
		menus,
		orders,
		review.NewService(store, users, cal, log),
		cal,
		log,
	), store
}

func counts(store *memory.Store) map[string]int {
	out := make(map[string]int, len(seededCollections))
	for _, c := range seededCollections {
		out[c] = store.Count(c)
	}
	return out
}

func TestSeedTwiceProducesIdenticalCounts(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()

	first, err := seeder.Run(ctx, Options{TimeZone: bogota})
	require.NoError(t, err)
	assert.Equal(t, 7, first.UsersCreated)
	assert.Equal(t, 20, first.MealsCreated)
	assert.Equal(t, 10, first.DaysPublished)
	assert.Equal(t, "2024-06-17", first.BusinessDays[0].String())
	assert.Equal(t, "2024-06-21", first.BusinessDays[4].String())
	assert.GreaterOrEqual(t, first.OrdersCreated, 10)
	assert.LessOrEqual(t, first.OrdersCreated, 15)
	assert.Equal(t, 10, first.ReviewsWritten)

	afterFirst := counts(store)
	assert.Equal(t, first.OrdersCreated, afterFirst[domain.CollectionOrders])

	second, err := seeder.Run(ctx, Options{TimeZone: bogota})
	require.NoError(t, err)
	assert.Equal(t, 0, second.UsersCreated)
	assert.Equal(t, 0, second.MealsCreated)
	assert.Equal(t, 0, second.DaysPublished)
	assert.Equal(t, 0, second.OrdersCreated)
	assert.Equal(t, afterFirst, counts(store))

	var days []domain.MenuDay
	require.NoError(t, store.Find(ctx, domain.CollectionMenuDays, interfaces.Filter{}, &days))
	for _, md := range days {
		assert.Equal(t, domain.MenuDayPublished, md.Status)
		assert.True(t, md.IsComplete(), "day %s of %s", md.Date, md.CookID)
	}
}

func TestSeedFillsGapsOnly(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()

	_, err := seeder.Run(ctx, Options{TimeZone: bogota})
	require.NoError(t, err)

	var md domain.MenuDay
	found, err := store.FindOne(ctx, domain.CollectionMenuDays, interfaces.Filter{"date": "2024-06-18"}, &md)
	require.NoError(t, err)
	require.True(t, found)
	kept := md.Dishes[0].MealID

	md.Dishes[1] = domain.DishSlot{Index: 2}
	_, err = store.UpdateFields(ctx, domain.CollectionMenuDays, interfaces.Filter{"id": md.ID}, map[string]any{"dishes": md.Dishes})
	require.NoError(t, err)

	report, err := seeder.Run(ctx, Options{TimeZone: bogota, Preserve: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.DaysPublished)
	assert.Equal(t, 10, report.ReviewsSkipped)
	assert.Equal(t, 0, report.ReviewsWritten)

	found, err = store.FindOne(ctx, domain.CollectionMenuDays, interfaces.Filter{"id": md.ID}, &md)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, md.IsComplete())
	assert.Equal(t, kept, md.Dishes[0].MealID)
}

func TestSeedRejectsUnknownZone(t *testing.T) {
	seeder, _ := newSeeder(t)
	_, err := seeder.Run(context.Background(), Options{TimeZone: "Mars/Olympus"})
	assert.ErrorIs(t, err, domain.ErrUnknownTimeZone)
}

func TestSeedSingleBusinessDay(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()
	opts := Options{TimeZone: bogota, BusinessDays: 1}

	var first *Report
	require.NotPanics(t, func() {
		var err error
		first, err = seeder.Run(ctx, opts)
		require.NoError(t, err)
	})
	require.Len(t, first.BusinessDays, 1)
	assert.Equal(t, "2024-06-17", first.BusinessDays[0].String())
	assert.Equal(t, 2, first.DaysPublished)
	assert.Equal(t, len(customers)*len(cooks), first.OrdersCreated)

	afterFirst := counts(store)

	second, err := seeder.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.OrdersCreated)
	assert.Equal(t, 0, second.DaysPublished)
	assert.Equal(t, afterFirst, counts(store))
}
