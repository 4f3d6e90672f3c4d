package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/floragems/floragems-backend/pkg/enums"
)

// Product represents a catalog listing with its size variants.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Category    enums.ProductCategory `gorm:"column:category;type:text;not null"`
	SubCategory string                `gorm:"column:sub_category;not null;default:''"`
	ImageURLs   pq.StringArray        `gorm:"column:image_urls;type:text[]"`
	Bestseller  bool                  `gorm:"column:bestseller;not null;default:false"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	NumReviews  int                   `gorm:"column:num_reviews;not null;default:0"`
	Sizes       []ProductSize         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductSize is one (size label, stock count) variant of a product.
// Stock is mutated only through the inventory adjuster's conditional updates.
type ProductSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_size,priority:1"`
	Label     string    `gorm:"column:label;not null;uniqueIndex:idx_product_size,priority:2"`
	Stock     int       `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
