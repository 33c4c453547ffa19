package review

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type names map[string]string

func (n names) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := n[userID]; ok {
		return name, nil
	}
	return "", domain.ErrNotFound
}

func TestUpsertReplacesByMealAndUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(ctx, domain.Indexes()))

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	svc := NewService(store, names{"cust-1": "Carla"}, cal, logger.NewNop())

	meal, err := domain.NewMeal("cook-1", "Soup", decimal.RequireFromString("5.50"), now)
	require.NoError(t, err)
	require.NoError(t, store.InsertOne(ctx, domain.CollectionMeals, meal))

	first, err := svc.Upsert(ctx, meal.ID, "cust-1", 3, "ok")
	require.NoError(t, err)
	assert.Equal(t, "Carla", first.UserName)

	now = now.Add(time.Hour)
	second, err := svc.Upsert(ctx, meal.ID, "cust-1", 5, "better")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, 1, store.Count(domain.CollectionReviews))

	now = now.Add(time.Hour)
	_, err = svc.Upsert(ctx, meal.ID, "cust-2", 4, "")
	require.NoError(t, err)

	list, err := svc.ListByMeal(ctx, meal.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cust-2", list[0].UserID)
	assert.Equal(t, "cust-1", list[1].UserID)

	exists, err := svc.Exists(ctx, meal.ID, "cust-2")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.Upsert(ctx, meal.ID, "cust-1", 6, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Upsert(ctx, "missing", "cust-1", 4, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
