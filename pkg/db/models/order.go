package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floragems/floragems-backend/pkg/enums"
	"github.com/floragems/floragems-backend/pkg/types"
)

// Order is a customer order. Line items snapshot product fields at order time
// on purpose; they never track later catalog edits.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	Paid            bool                  `gorm:"column:paid;not null;default:false"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'Order Placed'"`
	Address         types.ShippingAddress `gorm:"column:address;type:jsonb;serializer:json"`
	Cancelled       bool                  `gorm:"column:cancelled;not null;default:false"`
	CancelReason    *string               `gorm:"column:cancel_reason"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at"`
	StripeSessionID *string               `gorm:"column:stripe_session_id"`
	RefundID        *string               `gorm:"column:refund_id"`
	RefundStatus    *string               `gorm:"column:refund_status"`
	RefundAmount    *int64                `gorm:"column:refund_amount"`
	RefundCurrency  *string               `gorm:"column:refund_currency"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a denormalized snapshot of a purchased product.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL  string          `gorm:"column:image_url;not null;default:''"`
	Size      string          `gorm:"column:size;not null"`
	Qty       int             `gorm:"column:qty;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
