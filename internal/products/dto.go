package products

import (
	"github.com/shopspring/decimal"

	"github.com/floragems/floragems-backend/pkg/db/models"
)

// SizeInput is one size variant supplied when creating or updating a product.
type SizeInput struct {
	Label string `json:"label" validate:"required,max=32"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// AddInput carries everything needed to create a catalog listing.
type AddInput struct {
	Name        string          `json:"name" validate:"required,max=160"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	SubCategory string          `json:"sub_category"`
	ImageURLs   []string        `json:"image_urls" validate:"max=4,dive,url"`
	Bestseller  bool            `json:"bestseller"`
	Sizes       []SizeInput     `json:"sizes" validate:"required,min=1,dive"`
}

// UpdateInput carries the mutable fields of a listing. Nil pointers are
// left unchanged; a non-nil Sizes slice replaces all variants.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=160"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	SubCategory *string          `json:"sub_category"`
	ImageURLs   []string         `json:"image_urls" validate:"max=4,dive,url"`
	Bestseller  *bool            `json:"bestseller"`
	Sizes       []SizeInput      `json:"sizes" validate:"omitempty,min=1,dive"`
}

// ProductList is one page of listings with an opaque continuation cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
