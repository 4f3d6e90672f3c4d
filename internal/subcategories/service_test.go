package subcategories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

func setupSubCategoriesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS sub_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	require.NoError(t, db.Exec("DELETE FROM sub_categories").Error)

	return db
}

func TestServiceAddAndList(t *testing.T) {
	db := setupSubCategoriesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"Pendants", "Anklets", "Brooches"} {
		_, err := svc.Add(ctx, name)
		require.NoError(t, err)
	}

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Anklets", rows[0].Name)
	assert.Equal(t, "Brooches", rows[1].Name)
	assert.Equal(t, "Pendants", rows[2].Name)
}

func TestServiceAddRejectsDuplicateName(t *testing.T) {
	db := setupSubCategoriesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Add(ctx, "Chokers")
	require.NoError(t, err)

	_, err = svc.Add(ctx, "Chokers")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	_, err = svc.Add(ctx, "   ")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceRemove(t *testing.T) {
	db := setupSubCategoriesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Add(ctx, "Tiaras")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID))

	err = svc.Remove(ctx, created.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.Remove(ctx, uuid.New())
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
