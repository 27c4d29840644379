package commerce

import (
	"context"
	"time"
)

// FetchProgress reports pagination progress of an order fetch.
type FetchProgress struct {
	// Fetched is the number of orders retrieved so far
	Fetched int

	// Total is the server-reported total for the window, 0 if unknown
	Total int

	// Percent is Fetched/Total rounded down, 0 when Total is unknown
	Percent int
}

// PlatformClient is the outbound port to the marketplace hub API.
type PlatformClient interface {
	// ListShops returns the active channel registrations on the account.
	ListShops(ctx context.Context) ([]Shop, error)

	// FetchAllOrders retrieves every order placed in [start, end],
	// paging through the hub API. Progress updates are sent to the
	// optional progress channel without blocking; pass nil to ignore
	// them. The channel is not closed by the client.
	FetchAllOrders(ctx context.Context, start, end time.Time, progress chan<- FetchProgress) ([]Order, error)
}
