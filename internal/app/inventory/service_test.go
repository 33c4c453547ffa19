package inventory

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

func TestAdjustQuantityAndLowStock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	svc := NewService(memory.NewStore(), cal, logger.NewNop())

	threshold := decimal.RequireFromString("2")
	rice, err := svc.Add(ctx, interfaces.AddInventoryCommand{
		CookID:            "cook-1",
		Name:              "Rice",
		Quantity:          decimal.RequireFromString("5"),
		Unit:              "kg",
		LowStockThreshold: &threshold,
	})
	require.NoError(t, err)
	_, err = svc.Add(ctx, interfaces.AddInventoryCommand{CookID: "cook-1", Name: "Beans", Quantity: decimal.RequireFromString("1"), Unit: "kg"})
	require.NoError(t, err)

	low, err := svc.LowStock(ctx, "cook-1")
	require.NoError(t, err)
	assert.Empty(t, low)

	now = now.Add(time.Minute)
	item, err := svc.AdjustQuantity(ctx, rice.ID, decimal.RequireFromString("-3.5"))
	require.NoError(t, err)
	assert.Equal(t, "1.5", item.Quantity.String())

	low, err = svc.LowStock(ctx, "cook-1")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Rice", low[0].Name)

	_, err = svc.AdjustQuantity(ctx, rice.ID, decimal.RequireFromString("-2"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	items, err := svc.ListByCook(ctx, "cook-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Beans", items[0].Name)
	assert.Equal(t, "1.5", items[1].Quantity.String())
}

func TestAddRejectsInvalidItem(t *testing.T) {
	svc := NewService(memory.NewStore(), calendar.NewService(domain.DefaultCutoff, nil), logger.NewNop())

	_, err := svc.Add(context.Background(), interfaces.AddInventoryCommand{CookID: "cook-1", Name: "Oil", Quantity: decimal.RequireFromString("-1"), Unit: "l"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AdjustQuantity(context.Background(), "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAndDeleteAreCookScoped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	store := memory.NewStore()
	svc := NewService(store, cal, logger.NewNop())

	item, err := svc.Add(ctx, interfaces.AddInventoryCommand{CookID: "cook-1", Name: "Rice", Quantity: decimal.RequireFromString("5"), Unit: "kg"})
	require.NoError(t, err)

	threshold := decimal.RequireFromString("3")
	cmd := interfaces.UpdateInventoryCommand{
		Name:              "Basmati rice",
		Quantity:          decimal.RequireFromString("2.5"),
		Unit:              "kg",
		LowStockThreshold: &threshold,
		Notes:             "top shelf",
	}

	_, err = svc.Update(ctx, "cook-2", item.ID, cmd)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now = now.Add(time.Hour)
	updated, err := svc.Update(ctx, "cook-1", item.ID, cmd)
	require.NoError(t, err)
	assert.Equal(t, "Basmati rice", updated.Name)
	assert.Equal(t, now, updated.LastUpdated)

	low, err := svc.LowStock(ctx, "cook-1")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "top shelf", low[0].Notes)
	assert.Equal(t, "2.5", low[0].Quantity.String())

	cmd.Unit = ""
	_, err = svc.Update(ctx, "cook-1", item.ID, cmd)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, "cook-2", item.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "cook-1", item.ID))
	assert.Equal(t, 0, store.Count(domain.CollectionInventory))
	assert.ErrorIs(t, svc.Delete(ctx, "cook-1", item.ID), domain.ErrNotFound)
}
