package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  price NUMERIC NOT NULL,
  category TEXT NOT NULL,
  sub_category TEXT NOT NULL DEFAULT '',
  image_urls TEXT,
  bestseller INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  num_reviews INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	productSizes := `
CREATE TABLE IF NOT EXISTS product_sizes (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, label)
);`

	for _, ddl := range []string{products, productSizes} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	require.NoError(t, db.Exec("DELETE FROM product_sizes").Error)
	require.NoError(t, db.Exec("DELETE FROM products").Error)

	return db
}

func newProductsService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func addInput(name string) AddInput {
	return AddInput{
		Name:        name,
		Description: "Hand-set freshwater pearl on a gold chain",
		Price:       decimal.NewFromFloat(49.50),
		Category:    string(enums.ProductCategoryWomen),
		SubCategory: "Pendants",
		ImageURLs:   []string{"https://cdn.floragems.test/pearl-1.jpg"},
		Sizes: []SizeInput{
			{Label: "16in", Stock: 10},
			{Label: "18in", Stock: 4},
		},
	}
}

func TestServiceAddCreatesProductWithSizes(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	created, err := svc.Add(ctx, addInput("Pearl Pendant"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.IsActive)
	require.Len(t, created.Sizes, 2)
	for _, size := range created.Sizes {
		assert.Equal(t, created.ID, size.ProductID)
	}

	loaded, err := svc.Single(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pearl Pendant", loaded.Name)
	assert.Len(t, loaded.Sizes, 2)
}

func TestServiceAddRejectsBadInput(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	bad := addInput("Opal Ring")
	bad.Category = "Pets"
	_, err := svc.Add(ctx, bad)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	dup := addInput("Opal Ring")
	dup.Sizes = []SizeInput{{Label: "7", Stock: 1}, {Label: "7", Stock: 2}}
	_, err = svc.Add(ctx, dup)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	crowded := addInput("Opal Ring")
	crowded.ImageURLs = []string{
		"https://cdn.floragems.test/1.jpg",
		"https://cdn.floragems.test/2.jpg",
		"https://cdn.floragems.test/3.jpg",
		"https://cdn.floragems.test/4.jpg",
		"https://cdn.floragems.test/5.jpg",
	}
	_, err = svc.Add(ctx, crowded)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceUpdateAppliesPartialChanges(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	created, err := svc.Add(ctx, addInput("Ruby Stud"))
	require.NoError(t, err)

	name := "Ruby Stud Earrings"
	price := decimal.NewFromFloat(79.00)
	best := true
	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Name:       &name,
		Price:      &price,
		Bestseller: &best,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ruby Stud Earrings", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.True(t, updated.Bestseller)
	assert.Equal(t, "Hand-set freshwater pearl on a gold chain", updated.Description)
	assert.Len(t, updated.Sizes, 2)
}

func TestServiceUpdateReplacesSizes(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	created, err := svc.Add(ctx, addInput("Silver Bangle"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Sizes: []SizeInput{{Label: "S", Stock: 3}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Sizes, 1)
	assert.Equal(t, "S", updated.Sizes[0].Label)
	assert.Equal(t, 3, updated.Sizes[0].Stock)
}

func TestServiceUpdateUnknownProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)

	name := "Ghost"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceListReturnsActiveOnly(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	visible, err := svc.Add(ctx, addInput("Gold Band"))
	require.NoError(t, err)
	hidden, err := svc.Add(ctx, addInput("Retired Brooch"))
	require.NoError(t, err)
	_, err = svc.ToggleStatus(ctx, hidden.ID)
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, visible.ID, rows[0].ID)
}

func TestServiceToggleStatusFlipsActivation(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	created, err := svc.Add(ctx, addInput("Jade Charm"))
	require.NoError(t, err)

	toggled, err := svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	back, err := svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, back.IsActive)
}

func TestServiceListAllPaginates(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	hidden, err := svc.Add(ctx, addInput("Hidden Piece"))
	require.NoError(t, err)
	_, err = svc.ToggleStatus(ctx, hidden.ID)
	require.NoError(t, err)
	for _, name := range []string{"Amber Drop", "Coral Pin", "Topaz Hoop", "Onyx Cuff"} {
		_, err := svc.Add(ctx, addInput(name))
		require.NoError(t, err)
	}

	first, err := svc.ListAll(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Products, 3)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListAll(ctx, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Products, 2)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, p := range append(first.Products, second.Products...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
	assert.True(t, seen[hidden.ID])
}

func TestServiceRemoveDeletesProductAndSizes(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newProductsService(t, db)
	ctx := context.Background()

	created, err := svc.Add(ctx, addInput("Farewell Locket"))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID))

	_, err = svc.Single(ctx, created.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var orphanSizes int64
	require.NoError(t, db.Table("product_sizes").Where("product_id = ?", created.ID).Count(&orphanSizes).Error)
	assert.Zero(t, orphanSizes)

	err = svc.Remove(ctx, created.ID)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
