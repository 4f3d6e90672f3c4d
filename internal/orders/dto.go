package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	"github.com/floragems/floragems-backend/pkg/types"
)

// LineInput is one cart entry submitted at checkout.
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Size      string          `json:"size"`
	Qty       int             `json:"qty"`
}

// PlaceOrderInput carries everything checkout needs to create an order.
type PlaceOrderInput struct {
	UserID  uuid.UUID
	Items   []LineInput
	Address types.ShippingAddress
	Amount  decimal.Decimal
}

// VerifyStripeInput resolves a pending card payment after the hosted
// checkout redirect.
type VerifyStripeInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Success bool
}

// CancelInput captures an order cancellation request.
type CancelInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.Role
	Reason      string
	Disposition enums.StockDisposition
}

// CheckoutSessionLine is a provider line item in minor currency units.
type CheckoutSessionLine struct {
	Name            string
	UnitAmountMinor int64
	Qty             int64
}

// CheckoutSessionInput describes the hosted checkout session to create.
type CheckoutSessionInput struct {
	OrderID    uuid.UUID
	Currency   string
	Lines      []CheckoutSessionLine
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider session reference returned to the client.
type CheckoutSession struct {
	ID  string
	URL string
}

// RefundSnapshot is the provider-side view of a refund.
type RefundSnapshot struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// PlacedStripeOrder is returned by the card checkout variant.
type PlacedStripeOrder struct {
	OrderID    uuid.UUID `json:"order_id"`
	SessionURL string    `json:"session_url"`
}

// CancelResult reports what the cancellation did.
type CancelResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	CancelledAt time.Time       `json:"cancelled_at"`
	Refund      *RefundSnapshot `json:"refund,omitempty"`
}
