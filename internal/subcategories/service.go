package subcategories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

// Service manages the free-form classification labels used by the catalog.
type Service interface {
	Add(ctx context.Context, name string) (*models.SubCategory, error)
	List(ctx context.Context) ([]models.SubCategory, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db *gorm.DB
}

// NewService wires the sub-category service with its database handle.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("subcategories.NewService: db is required")
	}
	return &service{db: db}, nil
}

func (s *service) Add(ctx context.Context, name string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-category name must not be empty")
	}

	var existing models.SubCategory
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sub-category already exists").
			WithDetails(map[string]any{"name": name})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check sub-category")
	}

	row := &models.SubCategory{ID: uuid.New(), Name: name}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create sub-category")
	}
	return row, nil
}

func (s *service) List(ctx context.Context) ([]models.SubCategory, error) {
	var rows []models.SubCategory
	err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list sub-categories")
	}
	return rows, nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubCategory{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "failed to delete sub-category")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sub-category not found")
	}
	return nil
}
