package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

// Adjuster mutates per-size stock counters. All writes run inside the
// caller's transaction so checkout and cancellation stay atomic.
type Adjuster interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error
	Zero(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string) error
}

type adjuster struct{}

// NewAdjuster exposes the default stock adjuster.
func NewAdjuster() Adjuster {
	return adjuster{}
}

// Decrement atomically takes qty units from the (product, size) row. The
// guard rejects the update when remaining stock is insufficient, which is
// what closes the oversell race between concurrent checkouts.
func (adjuster) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE product_sizes
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND label = ? AND stock >= ?
	`, qty, productID, size, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID, "size": size, "qty": qty})
	}
	return nil
}

// Increment returns qty units to the (product, size) row. Rows deleted since
// the order was placed are skipped rather than failing the restock.
func (adjuster) Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock increment")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE product_sizes
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND label = ?
	`, qty, productID, size)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment stock")
	}
	return nil
}

// Zero clears the (product, size) row regardless of its current count.
func (adjuster) Zero(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reset")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE product_sizes
		SET stock = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND label = ?
	`, productID, size)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "zero stock")
	}
	return nil
}
