package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

func mustCreateOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        decimal.NewFromInt(120),
		PaymentMethod: enums.PaymentMethodCOD,
		Status:        enums.OrderStatusPlaced,
		Address:       testAddress(),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: uuid.New(),
			Name:      "Gold Band",
			Price:     decimal.NewFromInt(120),
			Size:      "7",
			Qty:       1,
		}},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		mustCreateOrder(t, db, userID, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := repo.List(context.Background(), pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Orders, 3)
	require.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Orders[0].CreatedAt.After(page.Orders[1].CreatedAt))

	rest, err := repo.List(context.Background(), pagination.Params{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 2)
	assert.Empty(t, rest.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(page.Orders, rest.Orders...) {
		assert.False(t, seen[o.ID], "order %s returned twice", o.ID)
		seen[o.ID] = true
	}
}

func TestRepositoryFindByIDPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := mustCreateOrder(t, db, uuid.New(), time.Now().UTC())

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Gold Band", found.Items[0].Name)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
