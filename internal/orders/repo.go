package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{}
	if pagination.HasNextPage(len(rows), params.Limit) {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Orders = rows
	return list, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}
