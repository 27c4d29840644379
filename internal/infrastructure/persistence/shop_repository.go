package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderpulse/backend/internal/domain/commerce"
)

// ShopModel is the GORM model for sales channel registrations
type ShopModel struct {
	ShopCd     string    `gorm:"column:shop_cd;primaryKey;size:20"`
	ShopName   string    `gorm:"column:shop_name;size:100"`
	SellerNick string    `gorm:"column:seller_nick;size:100"`
	ShopID     string    `gorm:"column:shop_id;size:100"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name
func (ShopModel) TableName() string {
	return "shops"
}

// ToEntity converts the model to a domain shop
func (m *ShopModel) ToEntity() commerce.Shop {
	return commerce.Shop{
		Code:       m.ShopCd,
		Name:       m.ShopName,
		SellerNick: m.SellerNick,
		ExternalID: m.ShopID,
		UpdatedAt:  m.UpdatedAt,
	}
}

// GormShopRepository implements commerce.ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GORM-based shop repository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// UpsertBatch writes the shops, overwriting existing rows by code
func (r *GormShopRepository) UpsertBatch(ctx context.Context, shops []commerce.Shop) error {
	if len(shops) == 0 {
		return nil
	}

	models := make([]ShopModel, len(shops))
	for i, s := range shops {
		models[i] = ShopModel{
			ShopCd:     s.Code,
			ShopName:   s.Name,
			SellerNick: s.SellerNick,
			ShopID:     s.ExternalID,
			UpdatedAt:  s.UpdatedAt,
		}
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_cd"}},
		DoUpdates: clause.AssignmentColumns([]string{"shop_name", "seller_nick", "shop_id", "updated_at"}),
	}).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to upsert shops: %w", err)
	}
	return nil
}

// DiscoverFromOrders registers channel codes seen in orders that have
// no shop row yet. Channels sometimes appear in the order feed before
// the account registration list catches up.
func (r *GormShopRepository) DiscoverFromOrders(ctx context.Context) (int, error) {
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO shops (shop_cd, shop_name, seller_nick, shop_id, updated_at)
		SELECT o.shop_cd, MIN(o.shop_name), MIN(o.seller_nick), '', CURRENT_TIMESTAMP
		FROM orders o
		LEFT JOIN shops s ON s.shop_cd = o.shop_cd
		WHERE s.shop_cd IS NULL AND o.shop_cd <> ''
		GROUP BY o.shop_cd
		ON CONFLICT (shop_cd) DO NOTHING`)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to discover shops from orders: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// List returns all registered shops ordered by code
func (r *GormShopRepository) List(ctx context.Context) ([]commerce.Shop, error) {
	var models []ShopModel
	if err := r.db.WithContext(ctx).Order("shop_cd").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	shops := make([]commerce.Shop, len(models))
	for i := range models {
		shops[i] = models[i].ToEntity()
	}
	return shops, nil
}

// Compile-time interface check
var _ commerce.ShopRepository = (*GormShopRepository)(nil)
