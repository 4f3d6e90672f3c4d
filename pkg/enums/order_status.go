package enums

import "fmt"

// OrderStatus tracks an order through fulfillment. The display strings are
// what the storefront renders, so they double as the stored values.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusPacking        OrderStatus = "Packing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// fulfillmentRank orders the forward progression. Cancelled sits outside it.
var fulfillmentRank = map[OrderStatus]int{
	OrderStatusPlaced:         0,
	OrderStatusPacking:        1,
	OrderStatusShipped:        2,
	OrderStatusOutForDelivery: 3,
	OrderStatusDelivered:      4,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether further status transitions are frozen.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}

// CanTransitionTo reports whether the fulfillment progression allows moving
// from o to next. Terminal states admit nothing; Cancelled is never reached
// through a status update (cancellation has its own path).
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if o.IsTerminal() || next == OrderStatusCancelled {
		return false
	}
	from, ok := fulfillmentRank[o]
	if !ok {
		return false
	}
	to, ok := fulfillmentRank[next]
	if !ok {
		return false
	}
	return to > from
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
