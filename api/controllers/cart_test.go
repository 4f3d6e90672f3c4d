package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/floragems/floragems-backend/api/middleware"
	"github.com/floragems/floragems-backend/pkg/db/models"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
)

type stubCartService struct {
	item  *models.CartItem
	items []models.CartItem
	err   error
}

func (s stubCartService) Add(ctx context.Context, userID, productID uuid.UUID, size string) (*models.CartItem, error) {
	return s.item, s.err
}

func (s stubCartService) Update(ctx context.Context, userID, productID uuid.UUID, size string, qty int) error {
	return s.err
}

func (s stubCartService) Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.items, s.err
}

func TestCartAddSuccess(t *testing.T) {
	userID := uuid.New()
	item := &models.CartItem{ID: uuid.New(), UserID: userID, Size: "18in", Qty: 1}
	handler := CartAdd(stubCartService{item: item}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","size":"18in"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.CartItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != item.ID {
		t.Fatalf("unexpected cart item id: %s", envelope.Data.ID)
	}
}

func TestCartAddRejectsBadBody(t *testing.T) {
	handler := CartAdd(stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"size":""}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartGetMissingIdentity(t *testing.T) {
	handler := CartGet(stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartUpdatePropagatesNotFound(t *testing.T) {
	handler := CartUpdate(stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart entry not found")}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","size":"18in","qty":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/update", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
