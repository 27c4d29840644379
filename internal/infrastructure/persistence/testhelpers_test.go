package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orderpulse/backend/internal/domain/commerce"
)

// newTestDB creates an in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&OrderModel{}, &ShopModel{}, &SyncRunModel{}, &CampaignModel{})
	require.NoError(t, err)
	return db
}

func testOrder(uniq string, orderedAt time.Time) commerce.Order {
	return commerce.Order{
		UniqueID:    uniq,
		ShopCode:    "B378",
		ShopName:    "Coupang",
		SellerNick:  "mybrand",
		SaleName:    "Vitamin C Serum",
		Status:      commerce.OrderStatusDelivered,
		Quantity:    1,
		PaidAmount:  25000,
		SalesAmount: 27000,
		OrderedAt:   orderedAt,
		BuyerName:   "구매자",
		ShopOrderNo: "ord-" + uniq,
	}
}
