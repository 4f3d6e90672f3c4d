package models

import (
	"time"

	"github.com/google/uuid"
)

// SubCategory is an independently managed classification label. Products
// reference it by name, not by foreign key.
type SubCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
