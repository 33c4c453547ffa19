package meal

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
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

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), domain.Indexes()))
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	})
	return NewService(store, names{"cook-1": "Chef Ana"}, cal, logger.NewNop()), store
}

func TestGetOrCreateByName(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	price := decimal.RequireFromString("5.50")

	m, created, err := svc.GetOrCreate(ctx, "cook-1", "Ajiaco", price, interfaces.MealDetails{Description: "Potato soup"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Chef Ana", m.CookName)

	again, created, err := svc.GetOrCreate(ctx, "cook-1", " Ajiaco ", price, interfaces.MealDetails{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	_, created, err = svc.GetOrCreate(ctx, "cook-2", "Ajiaco", price, interfaces.MealDetails{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, store.Count(domain.CollectionMeals))
}

func TestDeactivateAndReactivate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, _, err := svc.GetOrCreate(ctx, "cook-1", "Bandeja", decimal.RequireFromString("7.20"), interfaces.MealDetails{})
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, m.ID)
	require.NoError(t, err)

	active, err := svc.ListByCook(ctx, "cook-1", true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListByCook(ctx, "cook-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	cooks, err := svc.ListActiveCooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, cooks)

	back, created, err := svc.GetOrCreate(ctx, "cook-1", "Bandeja", decimal.RequireFromString("7.20"), interfaces.MealDetails{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, back.IsActive)
	assert.Equal(t, m.ID, back.ID)
}

func TestUpdatePriceValidates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, _, err := svc.GetOrCreate(ctx, "cook-1", "Arepa", decimal.RequireFromString("3.90"), interfaces.MealDetails{})
	require.NoError(t, err)

	_, err = svc.UpdatePrice(ctx, m.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.UpdatePrice(ctx, m.ID, decimal.RequireFromString("4.10"))
	require.NoError(t, err)
	assert.Equal(t, "4.10", updated.Price.StringFixed(2))

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
