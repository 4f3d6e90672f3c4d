package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
)

// Repository defines persistence operations for cart entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, userID, productID uuid.UUID, size string) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQty(ctx context.Context, id uuid.UUID, qty int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, userID, productID uuid.UUID, size string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND size = ?", userID, productID, size).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateQty(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("qty", qty).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
