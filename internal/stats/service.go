package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

// Summary is the dashboard headline: customer base size and paid revenue.
type Summary struct {
	TotalUsers   int64           `json:"total_users"`
	PaidOrders   int64           `json:"paid_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// TopProduct is the product with the highest cumulative quantity across
// paid orders, joined to its current catalog entry for display.
type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	TotalQty  int64           `json:"total_qty"`
}

// TopCustomer is the user with the highest cumulative paid-order spend.
type TopCustomer struct {
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	OrderCount int64           `json:"order_count"`
	TotalSpend decimal.Decimal `json:"total_spend"`
}

// Service answers the admin dashboard's read-only aggregations.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
	TopProduct(ctx context.Context) (*TopProduct, error)
	TopCustomer(ctx context.Context) (*TopCustomer, error)
}

type service struct {
	db *gorm.DB
}

// NewService wires the reporting service with its database handle.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("stats.NewService: db is required")
	}
	return &service{db: db}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	var out Summary

	err := s.db.WithContext(ctx).Table("users").Count(&out.TotalUsers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to count users")
	}

	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err = s.db.WithContext(ctx).
		Table("orders").
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue").
		Where("paid = ?", true).
		Scan(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to aggregate paid orders")
	}

	out.PaidOrders = row.Count
	out.TotalRevenue = row.Revenue
	return &out, nil
}

// TopProduct returns nil without error when no paid order exists yet.
func (s *service) TopProduct(ctx context.Context) (*TopProduct, error) {
	var row struct {
		ProductID uuid.UUID
		Name      string
		Category  string
		Price     decimal.Decimal
		ImageURL  string
		TotalQty  int64
	}
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id,
			products.name,
			products.category,
			products.price,
			'' AS image_url,
			SUM(order_items.qty) AS total_qty`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.paid = ?", true).
		Group("order_items.product_id, products.name, products.category, products.price").
		Order("total_qty DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to rank products")
	}
	if row.ProductID == uuid.Nil {
		return nil, nil
	}

	var product models.Product
	err = s.db.WithContext(ctx).Where("id = ?", row.ProductID).First(&product).Error
	switch {
	case err == nil:
		if len(product.ImageURLs) > 0 {
			row.ImageURL = product.ImageURLs[0]
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// product removed from the catalog since the sale; keep the
		// denormalized ranking fields and ship without an image
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load top product")
	}

	return &TopProduct{
		ProductID: row.ProductID,
		Name:      row.Name,
		Category:  row.Category,
		Price:     row.Price,
		ImageURL:  row.ImageURL,
		TotalQty:  row.TotalQty,
	}, nil
}

// TopCustomer returns nil without error when no paid order exists yet.
func (s *service) TopCustomer(ctx context.Context) (*TopCustomer, error) {
	var row struct {
		UserID     uuid.UUID
		Name       string
		Email      string
		OrderCount int64
		TotalSpend decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Table("orders").
		Select(`orders.user_id,
			users.name,
			users.email,
			COUNT(*) AS order_count,
			SUM(orders.amount) AS total_spend`).
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.paid = ?", true).
		Group("orders.user_id, users.name, users.email").
		Order("total_spend DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to rank customers")
	}
	if row.UserID == uuid.Nil {
		return nil, nil
	}

	return &TopCustomer{
		UserID:     row.UserID,
		Name:       row.Name,
		Email:      row.Email,
		OrderCount: row.OrderCount,
		TotalSpend: row.TotalSpend,
	}, nil
}
