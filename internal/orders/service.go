package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/internal/inventory"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	PlaceOrderStripe(ctx context.Context, input PlaceOrderInput) (*PlacedStripeOrder, error)
	VerifyStripe(ctx context.Context, input VerifyStripeInput) (bool, error)
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
	RefundStatus(ctx context.Context, orderID uuid.UUID) (*RefundSnapshot, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	List(ctx context.Context, params pagination.Params) (*OrderList, error)
	UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Remove(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory inventory.Adjuster
	gateway   PaymentGateway
	cart      CartClearer
	checkout  config.CheckoutConfig
}

// NewService builds an order service with the required dependencies. The
// payment gateway may be nil, which disables the card checkout surface.
func NewService(repo Repository, tx txRunner, adjuster inventory.Adjuster, gateway PaymentGateway, cart CartClearer, checkout config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if adjuster == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: adjuster,
		gateway:   gateway,
		cart:      cart,
		checkout:  checkout,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.createOrderTx(ctx, tx, input, enums.PaymentMethodCOD)
		if err != nil {
			return err
		}
		return s.cart.ClearForUser(ctx, tx, input.UserID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) PlaceOrderStripe(ctx context.Context, input PlaceOrderInput) (*PlacedStripeOrder, error) {
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card payments unavailable")
	}
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.createOrderTx(ctx, tx, input, enums.PaymentMethodStripe)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The session is created after the order commits. An abandoned session is
	// compensated by VerifyStripe(success=false); a session that never got
	// created is compensated right here the same way.
	sess, err := s.gateway.CreateCheckoutSession(ctx, s.buildSessionInput(created, input))
	if err != nil {
		if _, vErr := s.VerifyStripe(ctx, VerifyStripeInput{OrderID: created.ID, UserID: input.UserID, Success: false}); vErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(err, vErr), "checkout session failed and restock did not complete")
		}
		return nil, err
	}

	if err := s.repo.Update(ctx, created.ID, map[string]any{"stripe_session_id": sess.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session reference")
	}

	return &PlacedStripeOrder{OrderID: created.ID, SessionURL: sess.URL}, nil
}

func (s *service) VerifyStripe(ctx context.Context, input VerifyStripeInput) (bool, error) {
	if input.OrderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if input.Success {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			order, err := repo.FindByID(ctx, input.OrderID)
			if err != nil {
				return mapFindErr(err)
			}
			if input.UserID != uuid.Nil && order.UserID != input.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
			}
			if order.Cancelled {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
			}
			if err := repo.Update(ctx, order.ID, map[string]any{"paid": true}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
			return s.cart.ClearForUser(ctx, tx, order.UserID)
		})
		return err == nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapFindErr(err)
		}
		if input.UserID != uuid.Nil && order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		// Cancellation already settled the stock; a completed payment must be
		// refunded through Cancel, never voided as an abandonment.
		if order.Cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
		}
		if order.Paid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order payment already completed")
		}
		for _, item := range order.Items {
			if err := s.inventory.Increment(ctx, tx, item.ProductID, item.Size, item.Qty); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete abandoned order")
		}
		return nil
	})
	return false, err
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	disposition := input.Disposition
	if input.ActorRole != enums.RoleAdmin {
		// customers always restore stock; the disposition choice is admin-only
		disposition = enums.StockDispositionRestore
	}
	if !disposition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock disposition")
	}

	result := &CancelResult{OrderID: input.OrderID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapFindErr(err)
		}

		if order.Cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
		}

		if input.ActorRole == enums.RoleAdmin {
			if order.Status == enums.OrderStatusDelivered {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be cancelled")
			}
		} else {
			if order.UserID != input.ActorUserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
			}
			if order.Status != enums.OrderStatusPlaced && order.Status != enums.OrderStatusPacking {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
			}
		}

		for _, item := range order.Items {
			switch disposition {
			case enums.StockDispositionRestore:
				if err := s.inventory.Increment(ctx, tx, item.ProductID, item.Size, item.Qty); err != nil {
					return err
				}
			case enums.StockDispositionZero:
				if err := s.inventory.Zero(ctx, tx, item.ProductID, item.Size); err != nil {
					return err
				}
			case enums.StockDispositionNoChange:
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"cancelled":     true,
			"cancel_reason": input.Reason,
			"cancelled_at":  now,
			"status":        enums.OrderStatusCancelled,
		}

		// A refund failure aborts the whole cancellation so money and order
		// state never diverge.
		if order.PaymentMethod == enums.PaymentMethodStripe && order.Paid {
			if s.gateway == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "refunds unavailable")
			}
			if order.StripeSessionID == nil || *order.StripeSessionID == "" {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "paid order has no session reference")
			}
			snapshot, err := s.gateway.RefundSession(ctx, *order.StripeSessionID)
			if err != nil {
				return err
			}
			result.Refund = snapshot
			updates["refund_id"] = snapshot.ID
			updates["refund_status"] = snapshot.Status
			updates["refund_amount"] = snapshot.Amount
			updates["refund_currency"] = snapshot.Currency
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order cancelled")
		}
		result.CancelledAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RefundStatus(ctx context.Context, orderID uuid.UUID) (*RefundSnapshot, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapFindErr(err)
	}
	if order.RefundID == nil || *order.RefundID == "" {
		return nil, nil
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refunds unavailable")
	}

	snapshot, err := s.gateway.GetRefund(ctx, *order.RefundID)
	if err != nil {
		return nil, err
	}

	if order.RefundStatus == nil || *order.RefundStatus != snapshot.Status {
		updates := map[string]any{
			"refund_status":   snapshot.Status,
			"refund_amount":   snapshot.Amount,
			"refund_currency": snapshot.Currency,
		}
		if err := s.repo.Update(ctx, order.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund status")
		}
	}
	return snapshot, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapFindErr(err)
		}
		if order.Status == status {
			return nil
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}
		if err := repo.Update(ctx, order.ID, map[string]any{"status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return rows, nil
}

func (s *service) Remove(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		return mapFindErr(err)
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

// createOrderTx runs the stock validation, the per-line conditional
// decrement, and the order insert in the caller's transaction. Any
// insufficient line rolls back every prior decrement.
func (s *service) createOrderTx(ctx context.Context, tx *gorm.DB, input PlaceOrderInput, method enums.PaymentMethod) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	for _, line := range input.Items {
		if err := s.inventory.Decrement(ctx, tx, line.ProductID, line.Size, line.Qty); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        input.UserID,
		Amount:        input.Amount,
		PaymentMethod: method,
		Paid:          false,
		Status:        enums.OrderStatusPlaced,
		Address:       input.Address,
	}
	for _, line := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
			Size:      line.Size,
			Qty:       line.Qty,
		})
	}

	created, err := repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) buildSessionInput(order *models.Order, input PlaceOrderInput) CheckoutSessionInput {
	session := CheckoutSessionInput{
		OrderID:    order.ID,
		Currency:   s.checkout.Currency,
		SuccessURL: fmt.Sprintf("%s/verify?success=true&orderId=%s", s.checkout.FrontendOrigin, order.ID),
		CancelURL:  fmt.Sprintf("%s/verify?success=false&orderId=%s", s.checkout.FrontendOrigin, order.ID),
	}
	for _, line := range input.Items {
		session.Lines = append(session.Lines, CheckoutSessionLine{
			Name:            line.Name,
			UnitAmountMinor: toMinorUnits(line.Price),
			Qty:             int64(line.Qty),
		})
	}
	session.Lines = append(session.Lines, CheckoutSessionLine{
		Name:            "Delivery Charges",
		UnitAmountMinor: s.checkout.DeliveryFee,
		Qty:             1,
	})
	return session
}

func validatePlaceOrder(input PlaceOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if line.Size == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "item size required")
		}
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if line.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	if err := input.Address.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	return nil
}

func toMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func mapFindErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
