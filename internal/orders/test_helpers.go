package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	productSizes := `
CREATE TABLE IF NOT EXISTS product_sizes (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, label)
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  paid INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'Order Placed',
  address TEXT,
  cancelled INTEGER NOT NULL DEFAULT 0,
  cancel_reason TEXT,
  cancelled_at DATETIME,
  stripe_session_id TEXT,
  refund_id TEXT,
  refund_status TEXT,
  refund_amount INTEGER,
  refund_currency TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  size TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  size TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty > 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id, size)
);`

	for _, stmt := range []string{productSizes, orders, orderItems, cartItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testCartClearer struct {
	calls int
}

func (c *testCartClearer) ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	c.calls++
	return tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

type stubGateway struct {
	session    *CheckoutSession
	createErr  error
	refund     *RefundSnapshot
	refundErr  error
	getSnap    *RefundSnapshot
	getErr     error
	created    []CheckoutSessionInput
	refundOf   []string
	fetchedIDs []string
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	g.created = append(g.created, input)
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &CheckoutSession{ID: "cs_test_" + uuid.NewString(), URL: "https://checkout.stripe.test/s"}, nil
}

func (g *stubGateway) RefundSession(ctx context.Context, sessionID string) (*RefundSnapshot, error) {
	g.refundOf = append(g.refundOf, sessionID)
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	if g.refund != nil {
		return g.refund, nil
	}
	return &RefundSnapshot{ID: "re_" + uuid.NewString(), Status: "pending", Amount: 1000, Currency: "usd"}, nil
}

func (g *stubGateway) GetRefund(ctx context.Context, refundID string) (*RefundSnapshot, error) {
	g.fetchedIDs = append(g.fetchedIDs, refundID)
	if g.getErr != nil {
		return nil, g.getErr
	}
	if g.getSnap != nil {
		return g.getSnap, nil
	}
	return &RefundSnapshot{ID: refundID, Status: "succeeded", Amount: 1000, Currency: "usd"}, nil
}

func mustCreateSize(t *testing.T, db *gorm.DB, productID uuid.UUID, label string, stock int) {
	t.Helper()
	size := &models.ProductSize{
		ID:        uuid.New(),
		ProductID: productID,
		Label:     label,
		Stock:     stock,
	}
	require.NoError(t, db.Create(size).Error)
}

func stockOf(t *testing.T, db *gorm.DB, productID uuid.UUID, label string) int {
	t.Helper()
	var size models.ProductSize
	require.NoError(t, db.Where("product_id = ? AND label = ?", productID, label).First(&size).Error)
	return size.Stock
}

func mustCreateCartItem(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, size string, qty int) {
	t.Helper()
	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Qty:       qty,
	}
	require.NoError(t, db.Create(item).Error)
}

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName: "Jane",
		LastName:  "Doe",
		Street:    "1 Gem Lane",
		City:      "Austin",
		State:     "TX",
		Zip:       "78701",
		Country:   "US",
		Phone:     "5550100",
	}
}

func placeInput(userID, productID uuid.UUID, size string, qty int) PlaceOrderInput {
	price := decimal.NewFromFloat(49.50)
	return PlaceOrderInput{
		UserID: userID,
		Items: []LineInput{{
			ProductID: productID,
			Name:      "Pearl Pendant",
			Price:     price,
			ImageURL:  "https://cdn.floragems.test/p.jpg",
			Size:      size,
			Qty:       qty,
		}},
		Address: testAddress(),
		Amount:  price.Mul(decimal.NewFromInt(int64(qty))),
	}
}
