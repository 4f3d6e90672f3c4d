package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines cart operations for the authenticated user.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, size string) (*models.CartItem, error)
	Update(ctx context.Context, userID, productID uuid.UUID, size string, qty int) error
	Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type service struct {
	repo     Repository
	products productFinder
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

// Add puts one more unit of the (product, size) pair in the cart, creating
// the entry on first add.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, size string) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size required")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if !hasSize(product, size) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown size for product").
			WithDetails(map[string]any{"size": size})
	}

	existing, err := s.repo.Find(ctx, userID, productID, size)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entry")
	}

	if existing != nil {
		if err := s.repo.UpdateQty(ctx, existing.ID, existing.Qty+1); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart entry")
		}
		existing.Qty++
		return existing, nil
	}

	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Qty:       1,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart entry")
	}
	return item, nil
}

// Update sets the quantity of an existing entry. Quantity zero removes it.
func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, size string, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	existing, err := s.repo.Find(ctx, userID, productID, size)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entry")
	}

	if qty == 0 {
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart entry")
		}
		return nil
	}

	if err := s.repo.UpdateQty(ctx, existing.ID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart entry")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return items, nil
}

func hasSize(product *models.Product, size string) bool {
	for _, variant := range product.Sizes {
		if variant.Label == size {
			return true
		}
	}
	return false
}

// Clearer empties a user's cart inside a checkout transaction.
type Clearer struct {
	repo Repository
}

// NewClearer wraps the repository for use by the order service.
func NewClearer(repo Repository) Clearer {
	return Clearer{repo: repo}
}

func (c Clearer) ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if err := c.repo.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
