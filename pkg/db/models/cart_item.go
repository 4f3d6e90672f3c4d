package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one (product, size) entry of a user's cart. The cart lives in
// its own table and is mutated only through the cart service.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_entry,priority:1"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_entry,priority:2"`
	Size      string    `gorm:"column:size;not null;uniqueIndex:idx_cart_entry,priority:3"`
	Qty       int       `gorm:"column:qty;not null;check:qty > 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
