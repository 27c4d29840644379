package commerce

import (
	"context"
	"time"
)

// DailyRevenue is one day of aggregated order revenue.
type DailyRevenue struct {
	// Date is the day, at midnight in the service timezone
	Date time.Time

	// OrderCount is the number of revenue-counted orders that day
	OrderCount int

	// Revenue is the channel-aware revenue sum in KRW
	Revenue int64

	// Quantity is the unit count sum
	Quantity int64
}

// OrderStats summarizes the stored order set.
type OrderStats struct {
	TotalOrders int64
	OldestOrder *time.Time
	NewestOrder *time.Time
}

// RevenueQuery selects the daily revenue series.
type RevenueQuery struct {
	// From bounds the series start (inclusive)
	From time.Time

	// To bounds the series end (inclusive)
	To time.Time

	// ExcludeInternal drops internal verification orders
	ExcludeInternal bool
}

// OrderRepository persists marketplace orders.
type OrderRepository interface {
	// UpsertBatch writes the batch in a single transaction, inserting
	// new orders and overwriting existing ones by unique id.
	UpsertBatch(ctx context.Context, orders []Order) error

	// DailyRevenue returns the per-day revenue series for the query
	// window, excluding non-revenue statuses. Days without orders are
	// absent from the result.
	DailyRevenue(ctx context.Context, q RevenueQuery) ([]DailyRevenue, error)

	// Stats returns aggregate counts over all stored orders.
	Stats(ctx context.Context) (*OrderStats, error)
}

// ShopRepository persists sales channel registrations.
type ShopRepository interface {
	// UpsertBatch writes the shops, overwriting existing rows by code.
	UpsertBatch(ctx context.Context, shops []Shop) error

	// DiscoverFromOrders registers channel codes that appear in stored
	// orders but have no shop row yet, and returns how many were added.
	DiscoverFromOrders(ctx context.Context) (int, error)

	// List returns all registered shops ordered by code.
	List(ctx context.Context) ([]Shop, error)
}
