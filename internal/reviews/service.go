package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

// AddInput carries everything needed to leave a purchase-verified review.
type AddInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	OrderID   uuid.UUID `json:"order_id" validate:"required"`
	UserID    uuid.UUID `json:"-"`
	Comment   string    `json:"comment" validate:"required,max=2000"`
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service manages purchase-verified product reviews.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.Review, error)
	Edit(ctx context.Context, reviewID, userID uuid.UUID, comment string) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	UserReview(ctx context.Context, productID, userID uuid.UUID) (*models.Review, error)
}

type service struct {
	db     *gorm.DB
	orders orderFinder
	users  userFinder
}

// NewService wires the review service with its database handle and lookups.
func NewService(db *gorm.DB, orders orderFinder, users userFinder) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("reviews.NewService: db is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("reviews.NewService: orders is required")
	}
	if users == nil {
		return nil, fmt.Errorf("reviews.NewService: users is required")
	}
	return &service{db: db, orders: orders, users: users}, nil
}

// Add creates a review after proving the author received the product:
// the order must belong to them, be delivered, and contain the product.
func (s *service) Add(ctx context.Context, input AddInput) (*models.Review, error) {
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment must not be empty")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the order owner can review it")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reviews are allowed once the order is delivered").
			WithDetails(map[string]any{"status": order.Status})
	}
	if !orderContainsProduct(order, input.ProductID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this order")
	}

	var existing models.Review
	err = s.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ? AND order_id = ?", input.ProductID, input.UserID, input.OrderID).
		First(&existing).Error
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you already reviewed this product for this order")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check for existing review")
	}

	author, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load reviewer")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		OrderID:   input.OrderID,
		UserName:  author.Name,
		Comment:   comment,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return recountProductReviews(tx, input.ProductID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create review")
	}
	return review, nil
}

func (s *service) Edit(ctx context.Context, reviewID, userID uuid.UUID, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment must not be empty")
	}

	var review models.Review
	err := s.db.WithContext(ctx).Where("id = ?", reviewID).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author can edit a review")
	}

	err = s.db.WithContext(ctx).
		Model(&review).
		Update("comment", comment).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update review")
	}
	review.Comment = comment
	return &review, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list reviews")
	}
	return rows, nil
}

func (s *service) UserReview(ctx context.Context, productID, userID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Order("created_at DESC").
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load review")
	}
	return &review, nil
}

func orderContainsProduct(order *models.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// recountProductReviews keeps products.num_reviews equal to the actual row
// count rather than incrementing, so it self-heals after deletes.
func recountProductReviews(tx *gorm.DB, productID uuid.UUID) error {
	return tx.Exec(
		"UPDATE products SET num_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id = ?) WHERE id = ?",
		productID, productID,
	).Error
}
