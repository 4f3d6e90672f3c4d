package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/internal/inventory"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

func newTestService(t *testing.T, db *gorm.DB, gateway PaymentGateway) (Service, *testCartClearer) {
	t.Helper()
	cart := &testCartClearer{}
	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		inventory.NewAdjuster(),
		gateway,
		cart,
		config.CheckoutConfig{Currency: "usd", DeliveryFee: 1000, FrontendOrigin: "https://shop.floragems.test"},
	)
	require.NoError(t, err)
	return svc, cart
}

func TestPlaceOrderDecrementsStockAndClearsCart(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, cart := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)
	mustCreateCartItem(t, db, userID, productID, "M", 3)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 3))
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, 7, stockOf(t, db, productID, "M"))
	assert.Equal(t, enums.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.False(t, order.Paid)
	assert.Equal(t, 1, cart.calls)

	var cartCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Zero(t, cartCount)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Qty)
}

func TestPlaceOrderInsufficientStockRollsBackEverything(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	plentiful := uuid.New()
	scarce := uuid.New()
	mustCreateSize(t, db, plentiful, "S", 10)
	mustCreateSize(t, db, scarce, "S", 1)

	input := placeInput(userID, plentiful, "S", 2)
	input.Items = append(input.Items, LineInput{
		ProductID: scarce,
		Name:      "Opal Ring",
		Price:     input.Items[0].Price,
		Size:      "S",
		Qty:       5,
	})

	_, err := svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// the earlier decrement must have been rolled back
	assert.Equal(t, 10, stockOf(t, db, plentiful, "S"))
	assert.Equal(t, 1, stockOf(t, db, scarce, "S"))

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestPlaceOrderRejectsUnknownSize(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 5)

	_, err := svc.PlaceOrder(context.Background(), placeInput(uuid.New(), productID, "XL", 1))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestPlaceOrderStripeReturnsSessionWithDeliveryFee(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{session: &CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}}
	svc, cart := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 4)
	mustCreateCartItem(t, db, userID, productID, "M", 2)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", placed.SessionURL)

	require.Len(t, gateway.created, 1)
	session := gateway.created[0]
	assert.Equal(t, placed.OrderID, session.OrderID)
	require.Len(t, session.Lines, 2)
	assert.Equal(t, int64(4950), session.Lines[0].UnitAmountMinor)
	assert.Equal(t, int64(2), session.Lines[0].Qty)
	assert.Equal(t, "Delivery Charges", session.Lines[1].Name)
	assert.Equal(t, int64(1000), session.Lines[1].UnitAmountMinor)

	// cart survives until the payment is verified
	assert.Zero(t, cart.calls)
	assert.Equal(t, 2, stockOf(t, db, productID, "M"))

	var order models.Order
	require.NoError(t, db.Where("id = ?", placed.OrderID).First(&order).Error)
	require.NotNil(t, order.StripeSessionID)
	assert.Equal(t, "cs_test_1", *order.StripeSessionID)
	assert.Equal(t, enums.PaymentMethodStripe, order.PaymentMethod)
	assert.False(t, order.Paid)
}

func TestPlaceOrderStripeSessionFailureRestocksAndDeletes(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{createErr: pkgerrors.New(pkgerrors.CodeDependency, "stripe down")}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 4)

	_, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.Error(t, err)

	assert.Equal(t, 4, stockOf(t, db, productID, "M"))
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestVerifyStripeSuccessMarksPaidAndClearsCart(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{}
	svc, cart := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 4)
	mustCreateCartItem(t, db, userID, productID, "M", 2)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)

	paid, err := svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: true})
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, 1, cart.calls)

	var order models.Order
	require.NoError(t, db.Where("id = ?", placed.OrderID).First(&order).Error)
	assert.True(t, order.Paid)
}

func TestVerifyStripeFailureRestocksAndDeletesOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 4)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, db, productID, "M"))

	paid, err := svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: false})
	require.NoError(t, err)
	assert.False(t, paid)

	assert.Equal(t, 4, stockOf(t, db, productID, "M"))
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", placed.OrderID).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestVerifyStripeFailureAfterCancelDoesNotRestockAgain(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 5)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 3))
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, db, productID, "M"))

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     placed.OrderID,
		ActorUserID: userID,
		ActorRole:   enums.RoleCustomer,
		Reason:      "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, db, productID, "M"))

	// the Stripe cancel redirect still fires after the order was cancelled
	_, err = svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: false})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	assert.Equal(t, 5, stockOf(t, db, productID, "M"))
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", placed.OrderID).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)

	_, err = svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: true})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestVerifyStripeFailureNeverVoidsPaidOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 4)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)

	paid, err := svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: true})
	require.NoError(t, err)
	require.True(t, paid)

	_, err = svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: false})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	assert.Equal(t, 2, stockOf(t, db, productID, "M"))
	var order models.Order
	require.NoError(t, db.Where("id = ?", placed.OrderID).First(&order).Error)
	assert.True(t, order.Paid)
}

func TestCancelByOwnerRestoresStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 4))
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, db, productID, "M"))

	result, err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		ActorRole:   enums.RoleCustomer,
		Reason:      "changed my mind",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 10, stockOf(t, db, productID, "M"))

	var cancelled models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&cancelled).Error)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "changed my mind", *cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)
}

func TestCancelByOwnerRejectedAfterShipping(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", enums.OrderStatusShipped).Error)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		ActorRole:   enums.RoleCustomer,
		Reason:      "too late",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelByStrangerForbidden(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleCustomer,
		Reason:      "not mine",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestAdminCancelShippedOrderWithZeroDisposition(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 4))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", enums.OrderStatusShipped).Error)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleAdmin,
		Reason:      "recalled batch",
		Disposition: enums.StockDispositionZero,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, stockOf(t, db, productID, "M"))
}

func TestAdminCancelDeliveredOrderRejected(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", enums.OrderStatusDelivered).Error)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.RoleAdmin,
		Reason:      "no",
		Disposition: enums.StockDispositionNoChange,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelPaidStripeOrderIssuesRefundAndBlocksOnFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{refundErr: pkgerrors.New(pkgerrors.CodeDependency, "provider unavailable")}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	placed, err := svc.PlaceOrderStripe(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)
	_, err = svc.VerifyStripe(context.Background(), VerifyStripeInput{OrderID: placed.OrderID, UserID: userID, Success: true})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID:     placed.OrderID,
		ActorUserID: userID,
		ActorRole:   enums.RoleCustomer,
		Reason:      "refund me",
	})
	require.Error(t, err)

	// refund failure blocks the cancellation entirely
	var order models.Order
	require.NoError(t, db.Where("id = ?", placed.OrderID).First(&order).Error)
	assert.False(t, order.Cancelled)
	assert.Equal(t, 8, stockOf(t, db, productID, "M"))

	// with a working provider the same cancel succeeds and records the refund
	gateway.refundErr = nil
	gateway.refund = &RefundSnapshot{ID: "re_1", Status: "pending", Amount: 9900, Currency: "usd"}
	result, err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     placed.OrderID,
		ActorUserID: userID,
		ActorRole:   enums.RoleCustomer,
		Reason:      "refund me",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Refund)
	assert.Equal(t, "re_1", result.Refund.ID)

	require.NoError(t, db.Where("id = ?", placed.OrderID).First(&order).Error)
	require.NotNil(t, order.RefundID)
	assert.Equal(t, "re_1", *order.RefundID)
	assert.Equal(t, 10, stockOf(t, db, productID, "M"))
}

func TestCancelAlreadyCancelledOrderNotReprocessed(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 4))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelInput{OrderID: order.ID, ActorUserID: userID, ActorRole: enums.RoleCustomer, Reason: "first"})
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, db, productID, "M"))

	_, err = svc.Cancel(context.Background(), CancelInput{OrderID: order.ID, ActorUserID: userID, ActorRole: enums.RoleCustomer, Reason: "second"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// no double restock
	assert.Equal(t, 10, stockOf(t, db, productID, "M"))
}

func TestRefundStatusIsIdempotent(t *testing.T) {
	db := setupOrdersTestDB(t)
	gateway := &stubGateway{getSnap: &RefundSnapshot{ID: "re_9", Status: "succeeded", Amount: 9900, Currency: "usd"}}
	svc, _ := newTestService(t, db, gateway)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"refund_id":     "re_9",
		"refund_status": "pending",
	}).Error)

	first, err := svc.RefundStatus(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "succeeded", first.Status)

	second, err := svc.RefundStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var stored models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&stored).Error)
	require.NotNil(t, stored.RefundStatus)
	assert.Equal(t, "succeeded", *stored.RefundStatus)
}

func TestRefundStatusNoRefundOnFile(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)

	snapshot, err := svc.RefundStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 10)

	order, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped))

	// backwards is rejected
	err = svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPacking)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// same status is a no-op
	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped))

	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusDelivered))

	// terminal states are frozen
	err = svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	require.Error(t, err)
}

func TestUserOrdersAndAdminListAndRemove(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _ := newTestService(t, db, nil)

	userID := uuid.New()
	productID := uuid.New()
	mustCreateSize(t, db, productID, "M", 20)

	first, err := svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 1))
	require.NoError(t, err)
	_, err = svc.PlaceOrder(context.Background(), placeInput(userID, productID, "M", 2))
	require.NoError(t, err)

	mine, err := svc.UserOrders(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	require.NotEmpty(t, mine[0].Items)

	require.NoError(t, svc.Remove(context.Background(), first.ID))

	mine, err = svc.UserOrders(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", first.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	err = svc.Remove(context.Background(), first.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
