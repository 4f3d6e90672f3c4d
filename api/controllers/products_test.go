package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	productsvc "github.com/floragems/floragems-backend/internal/products"
	"github.com/floragems/floragems-backend/pkg/db/models"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

type stubProductService struct {
	product *models.Product
	list    []models.Product
	err     error
}

func (s stubProductService) Add(ctx context.Context, input productsvc.AddInput) (*models.Product, error) {
	return s.product, s.err
}

func (s stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateInput) (*models.Product, error) {
	return s.product, s.err
}

func (s stubProductService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s stubProductService) Single(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

func (s stubProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.list, s.err
}

func (s stubProductService) ListAll(ctx context.Context, params pagination.Params) (*productsvc.ProductList, error) {
	return &productsvc.ProductList{Products: s.list}, s.err
}

func (s stubProductService) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

func productRequest(method, target, productID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productID", productID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestProductSingleSuccess(t *testing.T) {
	productID := uuid.New()
	product := &models.Product{ID: productID, Name: "Opal Ring"}
	handler := ProductSingle(stubProductService{product: product}, nil)

	req := productRequest(http.MethodGet, "/api/product/"+productID.String(), productID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data models.Product `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != productID {
		t.Fatalf("unexpected product id: %s", envelope.Data.ID)
	}
}

func TestProductSingleInvalidID(t *testing.T) {
	handler := ProductSingle(stubProductService{}, nil)

	req := productRequest(http.MethodGet, "/api/product/not-a-uuid", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestProductSingleNotFound(t *testing.T) {
	handler := ProductSingle(stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}, nil)

	id := uuid.NewString()
	req := productRequest(http.MethodGet, "/api/product/"+id, id)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestProductListSuccess(t *testing.T) {
	list := []models.Product{{ID: uuid.New(), Name: "Pearl Pendant"}}
	handler := ProductList(stubProductService{list: list}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/product/list", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data []models.Product `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Pearl Pendant" {
		t.Fatalf("unexpected list payload: %+v", envelope.Data)
	}
}
