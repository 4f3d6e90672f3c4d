package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

// Repository defines persistence operations for the catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context, params pagination.Params) (*ProductList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceSizes(ctx context.Context, productID uuid.UUID, sizes []models.ProductSize) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params) (*ProductList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Sizes").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ProductList{}
	if pagination.HasNextPage(len(rows), params.Limit) {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Products = rows
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ReplaceSizes(ctx context.Context, productID uuid.UUID, sizes []models.ProductSize) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductSize{}).Error; err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sizes).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Delete(&models.ProductSize{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{}).Error
}
