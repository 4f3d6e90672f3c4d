package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

const maxImageURLs = 4

// Service exposes catalog operations for the storefront and admin panel.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Single(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context, params pagination.Params) (*ProductList, error)
	ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products.NewService: repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.Product, error) {
	category, err := enums.ParseProductCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product category")
	}
	if len(input.ImageURLs) > maxImageURLs {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a product carries at most 4 images")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	sizes, err := buildSizes(input.Sizes)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    category,
		SubCategory: strings.TrimSpace(input.SubCategory),
		ImageURLs:   input.ImageURLs,
		Bestseller:  input.Bestseller,
		IsActive:    true,
		Sizes:       sizes,
	}
	for i := range product.Sizes {
		product.Sizes[i].ProductID = product.ID
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	existing, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Category != nil {
		category, err := enums.ParseProductCategory(*input.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product category")
		}
		updates["category"] = category
	}
	if input.SubCategory != nil {
		updates["sub_category"] = strings.TrimSpace(*input.SubCategory)
	}
	if input.ImageURLs != nil {
		if len(input.ImageURLs) > maxImageURLs {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a product carries at most 4 images")
		}
		updates["image_urls"] = pq.StringArray(input.ImageURLs)
	}
	if input.Bestseller != nil {
		updates["bestseller"] = *input.Bestseller
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, existing.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update product")
		}
	}
	if input.Sizes != nil {
		sizes, err := buildSizes(input.Sizes)
		if err != nil {
			return nil, err
		}
		for i := range sizes {
			sizes[i].ProductID = existing.ID
		}
		if err := s.repo.ReplaceSizes(ctx, existing.ID, sizes); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to replace product sizes")
		}
	}

	return s.findProduct(ctx, id)
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete product")
	}
	return nil
}

func (s *service) Single(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.findProduct(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list products")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*ProductList, error) {
	list, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list products")
	}
	return list, nil
}

func (s *service) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	existing, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"is_active": !existing.IsActive}
	if err := s.repo.Update(ctx, existing.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to toggle product status")
	}
	return s.findProduct(ctx, id)
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	return product, nil
}

func buildSizes(inputs []SizeInput) ([]models.ProductSize, error) {
	seen := map[string]struct{}{}
	sizes := make([]models.ProductSize, 0, len(inputs))
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size label must not be empty")
		}
		if in.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size stock must not be negative")
		}
		if _, dup := seen[label]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate size label").
				WithDetails(map[string]any{"label": label})
		}
		seen[label] = struct{}{}
		sizes = append(sizes, models.ProductSize{
			ID:    uuid.New(),
			Label: label,
			Stock: in.Stock,
		})
	}
	return sizes, nil
}
