package commerce

import "time"

// OrderStatus is the canonical lifecycle status of a marketplace order.
// Raw platform statuses are mapped onto this set by the platform client;
// values the mapping does not know pass through unchanged.
type OrderStatus string

const (
	OrderStatusPlaced            OrderStatus = "placed"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusPreparing         OrderStatus = "preparing"
	OrderStatusShipping          OrderStatus = "shipping"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusPurchaseConfirmed OrderStatus = "purchase_confirmed"
	OrderStatusOnHold            OrderStatus = "on_hold"
	OrderStatusReconfirm         OrderStatus = "reconfirm"
	OrderStatusCancelRequested   OrderStatus = "cancel_requested"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusReturnRequested   OrderStatus = "return_requested"
	OrderStatusReturnCompleted   OrderStatus = "return_completed"
	OrderStatusExchangeRequested OrderStatus = "exchange_requested"
	OrderStatusExchangeCollected OrderStatus = "exchange_collected"
)

// RevenueExcludedStatuses lists order statuses that never count toward
// revenue analytics: returns, exchanges, cancellations and orders held
// for manual review.
var RevenueExcludedStatuses = []OrderStatus{
	OrderStatusReturnRequested,
	OrderStatusExchangeRequested,
	OrderStatusExchangeCollected,
	OrderStatusCancelled,
	OrderStatusReturnCompleted,
	OrderStatusOnHold,
	OrderStatusReconfirm,
}

// SmartstoreShopCodes identifies channels whose revenue is the paid
// amount rather than the sales amount.
var SmartstoreShopCodes = []string{"A077", "1077"}

// InternalSaleNameMarker flags internal verification orders placed by
// staff. Orders whose sale name contains it can be excluded from
// analytics.
const InternalSaleNameMarker = "내부 확인용"

// Order is a marketplace order as reported by the hub API.
type Order struct {
	// UniqueID is the hub-wide unique order line identifier (upsert key)
	UniqueID string

	// ShopCode identifies the sales channel
	ShopCode string

	// ShopName is the display name of the sales channel
	ShopName string

	// SellerNick is the seller account alias on the channel
	SellerNick string

	// SaleName is the product listing name as sold
	SaleName string

	// OptionName is the selected product option, if any
	OptionName string

	// SetName is the bundle name, if the line belongs to a set listing
	SetName string

	// SaleCode is the channel-side listing code
	SaleCode string

	// Status is the canonical order status
	Status OrderStatus

	// Quantity is the ordered unit count
	Quantity int

	// PackUnit is the packaging multiplier for set listings
	PackUnit int

	// PaidAmount is the amount the buyer paid, in KRW
	PaidAmount int64

	// SalesAmount is the listed sales amount, in KRW
	SalesAmount int64

	// OrderedAt is when the order was placed
	OrderedAt time.Time

	// PaidAt is when the order was paid, if it has been
	PaidAt *time.Time

	// BuyerName is the orderer name
	BuyerName string

	// ShopOrderNo is the channel-side order number
	ShopOrderNo string
}

// Revenue returns the amount this order contributes to revenue
// analytics given its channel.
func (o *Order) Revenue() int64 {
	for _, code := range SmartstoreShopCodes {
		if o.ShopCode == code {
			return o.PaidAmount
		}
	}
	return o.SalesAmount
}

// IsRevenueExcluded reports whether the order status removes it from
// revenue analytics.
func (o *Order) IsRevenueExcluded() bool {
	for _, s := range RevenueExcludedStatuses {
		if o.Status == s {
			return true
		}
	}
	return false
}
