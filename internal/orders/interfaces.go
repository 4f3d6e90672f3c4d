package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) (*OrderList, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentGateway wraps the hosted-checkout provider operations the order
// lifecycle needs.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	RefundSession(ctx context.Context, sessionID string) (*RefundSnapshot, error)
	GetRefund(ctx context.Context, refundID string) (*RefundSnapshot, error)
}

// CartClearer empties a user's cart inside the checkout transaction.
type CartClearer interface {
	ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}
