package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a purchase-verified product comment. One review per
// (product, user, order) triple, enforced by the unique index.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_review_triple,priority:1;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_review_triple,priority:2"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_review_triple,priority:3"`
	UserName  string    `gorm:"column:user_name;not null"`
	Comment   string    `gorm:"column:comment;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
