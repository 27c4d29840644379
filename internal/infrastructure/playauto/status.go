package playauto

import "github.com/orderpulse/backend/internal/domain/commerce"

// mapOrderStatus converts a raw hub order status to the canonical
// status. Unknown values pass through so no order is dropped on an
// unexpected status.
func mapOrderStatus(raw string) commerce.OrderStatus {
	switch raw {
	case "신규주문":
		return commerce.OrderStatusPlaced
	case "결제완료":
		return commerce.OrderStatusPaid
	case "출고대기", "출고준비":
		return commerce.OrderStatusPreparing
	case "출고완료", "배송중":
		return commerce.OrderStatusShipping
	case "배송완료":
		return commerce.OrderStatusDelivered
	case "구매결정":
		return commerce.OrderStatusPurchaseConfirmed
	case "주문보류":
		return commerce.OrderStatusOnHold
	case "주문재확인":
		return commerce.OrderStatusReconfirm
	case "취소요청":
		return commerce.OrderStatusCancelRequested
	case "취소완료":
		return commerce.OrderStatusCancelled
	case "반품요청":
		return commerce.OrderStatusReturnRequested
	case "반품완료":
		return commerce.OrderStatusReturnCompleted
	case "교환요청":
		return commerce.OrderStatusExchangeRequested
	case "교환회수완료":
		return commerce.OrderStatusExchangeCollected
	default:
		return commerce.OrderStatus(raw)
	}
}
