package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params pagination.Params) (*UserList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsBlocked(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a user repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*UserList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &UserList{}
	if pagination.HasNextPage(len(rows), params.Limit) {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Users = rows
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.User{}).Error
}

// IsBlocked satisfies the auth middleware's block check.
func (r *repository) IsBlocked(ctx context.Context, id uuid.UUID) (bool, error) {
	var blocked bool
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("blocked").
		Where("id = ?", id).
		Scan(&blocked).Error
	if err != nil {
		return false, err
	}
	return blocked, nil
}
