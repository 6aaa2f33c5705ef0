package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

type memoryCatalog struct {
	domain.Repository
	products map[uuid.UUID]*domain.Product
}

func (m *memoryCatalog) CreateProduct(_ context.Context, p *domain.Product) error {
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return apperr.ConstraintViolation("sku already exists", nil)
		}
	}
	p.ID = uuid.New()
	m.products[p.ID] = p
	return nil
}

func (m *memoryCatalog) Product(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("product", id)
}

func post(t *testing.T, router http.Handler, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestCreateProduct(t *testing.T) {
	repo := &memoryCatalog{products: map[uuid.UUID]*domain.Product{}}
	router := mux.NewRouter()
	NewCatalogHandler(repo).RegisterRoutes(router)

	rec, resp := post(t, router, "/api/products", map[string]any{
		"sku":           "SKU-1",
		"name":          "Widget",
		"selling_price": "12.50",
		"track_serials": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	require.Len(t, repo.products, 1)
	for _, p := range repo.products {
		assert.Equal(t, "pcs", p.Unit)
		assert.True(t, p.IsActive)
		assert.True(t, p.TrackSerials)
	}

	rec, _ = post(t, router, "/api/products", map[string]any{"sku": "SKU-1", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = post(t, router, "/api/products", map[string]any{"sku": "SKU-2", "name": "Bad", "cost_price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = post(t, router, "/api/products", map[string]any{"name": "No SKU"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductNotFound(t *testing.T) {
	router := mux.NewRouter()
	NewCatalogHandler(&memoryCatalog{products: map[uuid.UUID]*domain.Product{}}).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
