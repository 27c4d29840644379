package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderpulse/backend/internal/domain/commerce"
)

func TestShopUpsertBatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormShopRepository(db)
	ctx := context.Background()

	shops := []commerce.Shop{
		{Code: "A077", Name: "SmartStore", SellerNick: "mybrand", ExternalID: "s-1", UpdatedAt: time.Now()},
		{Code: "B378", Name: "Coupang", SellerNick: "mybrand", ExternalID: "s-2", UpdatedAt: time.Now()},
	}
	require.NoError(t, repo.UpsertBatch(ctx, shops))

	// Re-registering with a new name overwrites, never duplicates.
	shops[0].Name = "Naver SmartStore"
	require.NoError(t, repo.UpsertBatch(ctx, shops))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Naver SmartStore", listed[0].Name)
	assert.Equal(t, "B378", listed[1].Code)
}

func TestDiscoverFromOrders(t *testing.T) {
	db := newTestDB(t)
	shopRepo := NewGormShopRepository(db)
	orderRepo := NewGormOrderRepository(db, time.UTC)
	ctx := context.Background()

	require.NoError(t, shopRepo.UpsertBatch(ctx, []commerce.Shop{
		{Code: "B378", Name: "Coupang", UpdatedAt: time.Now()},
	}))

	orderedAt := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	known := testOrder("u-1", orderedAt) // shop B378
	unknown := testOrder("u-2", orderedAt)
	unknown.ShopCode = "X999"
	unknown.ShopName = "New Channel"
	require.NoError(t, orderRepo.UpsertBatch(ctx, []commerce.Order{known, unknown}))

	added, err := shopRepo.DiscoverFromOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	listed, err := shopRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "X999", listed[1].Code)
	assert.Equal(t, "New Channel", listed[1].Name)

	// Second discovery pass finds nothing new.
	added, err = shopRepo.DiscoverFromOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}
