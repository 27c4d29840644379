package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderpulse/backend/internal/domain/commerce"
)

// OrderModel is the GORM model for marketplace orders
type OrderModel struct {
	Uniq         string     `gorm:"column:uniq;primaryKey;size:100"`
	ShopCd       string     `gorm:"column:shop_cd;size:20;index"`
	ShopName     string     `gorm:"column:shop_name;size:100"`
	SellerNick   string     `gorm:"column:seller_nick;size:100"`
	ShopSaleName string     `gorm:"column:shop_sale_name;size:500"`
	ShopOptName  string     `gorm:"column:shop_opt_name;size:500"`
	SetName      string     `gorm:"column:set_name;size:200"`
	CSaleCd      string     `gorm:"column:c_sale_cd;size:100"`
	OrdStatus    string     `gorm:"column:ord_status;size:50;index"`
	SaleCnt      int        `gorm:"column:sale_cnt"`
	PackUnit     int        `gorm:"column:pack_unit"`
	PayAmt       int64      `gorm:"column:pay_amt"`
	Sales        int64      `gorm:"column:sales"`
	OrdTime      time.Time  `gorm:"column:ord_time;index"`
	PayTime      *time.Time `gorm:"column:pay_time"`
	OrderName    string     `gorm:"column:order_name;size:100"`
	ShopOrdNo    string     `gorm:"column:shop_ord_no;size:100"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

// TableName specifies the table name
func (OrderModel) TableName() string {
	return "orders"
}

// ToEntity converts the model to a domain order
func (m *OrderModel) ToEntity() commerce.Order {
	return commerce.Order{
		UniqueID:    m.Uniq,
		ShopCode:    m.ShopCd,
		ShopName:    m.ShopName,
		SellerNick:  m.SellerNick,
		SaleName:    m.ShopSaleName,
		OptionName:  m.ShopOptName,
		SetName:     m.SetName,
		SaleCode:    m.CSaleCd,
		Status:      commerce.OrderStatus(m.OrdStatus),
		Quantity:    m.SaleCnt,
		PackUnit:    m.PackUnit,
		PaidAmount:  m.PayAmt,
		SalesAmount: m.Sales,
		OrderedAt:   m.OrdTime,
		PaidAt:      m.PayTime,
		BuyerName:   m.OrderName,
		ShopOrderNo: m.ShopOrdNo,
	}
}

func orderModelFromEntity(o *commerce.Order) OrderModel {
	return OrderModel{
		Uniq:         o.UniqueID,
		ShopCd:       o.ShopCode,
		ShopName:     o.ShopName,
		SellerNick:   o.SellerNick,
		ShopSaleName: o.SaleName,
		ShopOptName:  o.OptionName,
		SetName:      o.SetName,
		CSaleCd:      o.SaleCode,
		OrdStatus:    string(o.Status),
		SaleCnt:      o.Quantity,
		PackUnit:     o.PackUnit,
		PayAmt:       o.PaidAmount,
		Sales:        o.SalesAmount,
		OrdTime:      o.OrderedAt,
		PayTime:      o.PaidAt,
		OrderName:    o.BuyerName,
		ShopOrdNo:    o.ShopOrderNo,
	}
}

// orderUpdateColumns are the columns overwritten on upsert conflicts.
var orderUpdateColumns = []string{
	"shop_cd", "shop_name", "seller_nick", "shop_sale_name", "shop_opt_name",
	"set_name", "c_sale_cd", "ord_status", "sale_cnt", "pack_unit",
	"pay_amt", "sales", "ord_time", "pay_time", "order_name", "shop_ord_no",
	"updated_at",
}

const orderUpsertChunkSize = 500

// GormOrderRepository implements commerce.OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB, loc *time.Location) *GormOrderRepository {
	if loc == nil {
		loc = time.Local
	}
	return &GormOrderRepository{db: db, loc: loc}
}

// UpsertBatch writes the batch in one transaction, overwriting rows
// that already exist by unique id. Re-running the same batch leaves
// the table unchanged apart from timestamps.
func (r *GormOrderRepository) UpsertBatch(ctx context.Context, orders []commerce.Order) error {
	if len(orders) == 0 {
		return nil
	}

	models := make([]OrderModel, len(orders))
	for i := range orders {
		models[i] = orderModelFromEntity(&orders[i])
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(models); start += orderUpsertChunkSize {
			end := start + orderUpsertChunkSize
			if end > len(models) {
				end = len(models)
			}
			chunk := models[start:end]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "uniq"}},
				DoUpdates: clause.AssignmentColumns(orderUpdateColumns),
			}).Create(&chunk).Error; err != nil {
				return fmt.Errorf("failed to upsert orders: %w", err)
			}
		}
		return nil
	})
}

type dailyRevenueRow struct {
	Day        string
	OrderCount int
	Revenue    int64
	Quantity   int64
}

// DailyRevenue aggregates the channel-aware revenue per day over the
// query window. Smart-store channels count the paid amount, everything
// else the sales amount; excluded statuses never count.
func (r *GormOrderRepository) DailyRevenue(ctx context.Context, q commerce.RevenueQuery) ([]commerce.DailyRevenue, error) {
	excluded := make([]string, len(commerce.RevenueExcludedStatuses))
	for i, s := range commerce.RevenueExcludedStatuses {
		excluded[i] = string(s)
	}

	query := r.db.WithContext(ctx).
		Table("orders").
		Select(`CAST(DATE(ord_time) AS TEXT) AS day,
			COUNT(*) AS order_count,
			SUM(CASE WHEN shop_cd IN ? THEN pay_amt ELSE sales END) AS revenue,
			SUM(sale_cnt) AS quantity`, commerce.SmartstoreShopCodes).
		Where("ord_time >= ? AND ord_time < ?", q.From, q.To.AddDate(0, 0, 1)).
		Where("ord_status NOT IN ?", excluded)

	if q.ExcludeInternal {
		query = query.Where("shop_sale_name NOT LIKE ?", "%"+commerce.InternalSaleNameMarker+"%")
	}

	var rows []dailyRevenueRow
	if err := query.Group("DATE(ord_time)").Order("day").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate daily revenue: %w", err)
	}

	series := make([]commerce.DailyRevenue, 0, len(rows))
	for _, row := range rows {
		day, err := time.ParseInLocation("2006-01-02", row.Day, r.loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse revenue day %q: %w", row.Day, err)
		}
		series = append(series, commerce.DailyRevenue{
			Date:       day,
			OrderCount: row.OrderCount,
			Revenue:    row.Revenue,
			Quantity:   row.Quantity,
		})
	}
	return series, nil
}

// Stats returns aggregate counts over all stored orders
func (r *GormOrderRepository) Stats(ctx context.Context) (*commerce.OrderStats, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	stats := &commerce.OrderStats{TotalOrders: total}
	if total == 0 {
		return stats, nil
	}

	var oldest, newest OrderModel
	if err := r.db.WithContext(ctx).Order("ord_time ASC").First(&oldest).Error; err != nil {
		return nil, fmt.Errorf("failed to find oldest order: %w", err)
	}
	if err := r.db.WithContext(ctx).Order("ord_time DESC").First(&newest).Error; err != nil {
		return nil, fmt.Errorf("failed to find newest order: %w", err)
	}
	stats.OldestOrder = &oldest.OrdTime
	stats.NewestOrder = &newest.OrdTime
	return stats, nil
}

// Compile-time interface check
var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
