package commerce

import "time"

// Shop is a sales channel registration on the hub account.
type Shop struct {
	// Code is the hub channel code (primary key)
	Code string

	// Name is the channel display name
	Name string

	// SellerNick is the seller account alias on the channel
	SellerNick string

	// ExternalID is the hub-side registration id
	ExternalID string

	// UpdatedAt is when the registration was last refreshed
	UpdatedAt time.Time
}
