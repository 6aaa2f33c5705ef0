package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// fakeService implements only what a test wires; anything else panics.
type fakeService struct {
	Service
	createSale func(command.CreateSaleCommand) (*domain.Sale, error)
	getSale    func(uuid.UUID) (*domain.Sale, error)
	shipSale   func(command.ShipSaleCommand) (*domain.Sale, error)
	confirm    func(uuid.UUID) (*domain.Sale, error)
	adjust     func(command.AdjustStockCommand) (*command.AdjustStockResult, error)
	history    []inventory.InventoryTransaction
}

func (f *fakeService) CreateSale(_ context.Context, cmd command.CreateSaleCommand) (*domain.Sale, error) {
	return f.createSale(cmd)
}

func (f *fakeService) GetSale(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	return f.getSale(id)
}

func (f *fakeService) ShipSale(_ context.Context, cmd command.ShipSaleCommand) (*domain.Sale, error) {
	return f.shipSale(cmd)
}

func (f *fakeService) ConfirmSale(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	return f.confirm(id)
}

func (f *fakeService) AdjustStock(_ context.Context, cmd command.AdjustStockCommand) (*command.AdjustStockResult, error) {
	return f.adjust(cmd)
}

func (f *fakeService) ListTransactions(filter inventory.HistoryFilter) *inventory.TransactionIterator {
	return inventory.NewTransactionIterator(filter, func(_ context.Context, hf inventory.HistoryFilter) ([]inventory.InventoryTransaction, error) {
		start := 0
		if hf.After != nil {
			for i, txn := range f.history {
				if txn.ID == hf.After.ID {
					start = i + 1
				}
			}
		}
		return f.history[start:min(start+hf.PageSize, len(f.history))], nil
	})
}

func newTestRouter(svc Service) *mux.Router {
	router := mux.NewRouter()
	NewFulfillmentHandler(svc).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestCreateSale(t *testing.T) {
	customerID, productID := uuid.New(), uuid.New()
	var got command.CreateSaleCommand
	svc := &fakeService{createSale: func(cmd command.CreateSaleCommand) (*domain.Sale, error) {
		got = cmd
		return &domain.Sale{ID: uuid.New(), SaleNumber: "SO-1", Status: domain.SaleDraft}, nil
	}}

	rec, resp := do(t, newTestRouter(svc), http.MethodPost, "/api/sales", map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": "3", "unit_price": "9.50"},
		},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, customerID, got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Quantity.Equal(decimal.NewFromInt(3)))
	require.NotNil(t, got.Items[0].UnitPrice)
	assert.Equal(t, "9.5", got.Items[0].UnitPrice.String())
}

func TestCreateSaleRejectsBadInput(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec, resp := do(t, router, http.MethodPost, "/api/sales", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)

	rec, resp = do(t, router, http.MethodPost, "/api/sales", map[string]any{"notes": "no customer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.ErrValidation.Error(), resp.Kind)
	assert.Contains(t, resp.Error, "CustomerID")
}

func TestErrorStatusMapping(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", apperr.NotFound("sale", id), http.StatusNotFound, "not found"},
		{"invalid transition", apperr.InvalidTransition("sale", id, "shipped", "ship"), http.StatusConflict, "invalid transition"},
		{"insufficient stock", apperr.InsufficientStock(id, id, decimal.NewFromInt(7), decimal.NewFromInt(3)), http.StatusConflict, "insufficient stock"},
		{"constraint", apperr.ConstraintViolation("duplicate", nil), http.StatusConflict, "constraint violation"},
		{"empty order", apperr.EmptyOrder("sale", id), http.StatusUnprocessableEntity, "empty order"},
		{"no warehouse", apperr.NoWarehouse("sale", id), http.StatusUnprocessableEntity, "no warehouse assigned"},
		{"wrapped", fmt.Errorf("failed to ship sale: %w", apperr.NotFound("sale", id)), http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{confirm: func(uuid.UUID) (*domain.Sale, error) { return nil, tt.err }}
			rec, resp := do(t, newTestRouter(svc), http.MethodPost, "/api/sales/"+id.String()+"/confirm", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.False(t, resp.Success)
		})
	}
}

func TestUnclassifiedErrorIsHidden(t *testing.T) {
	svc := &fakeService{getSale: func(uuid.UUID) (*domain.Sale, error) {
		return nil, errors.New("pq: connection refused")
	}}

	rec, resp := do(t, newTestRouter(svc), http.MethodGet, "/api/sales/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Empty(t, resp.Kind)
}

func TestInvalidPathID(t *testing.T) {
	rec, resp := do(t, newTestRouter(&fakeService{}), http.MethodGet, "/api/sales/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id", resp.Error)
}

func TestShipSalePassesShipment(t *testing.T) {
	id := uuid.New()
	var got command.ShipSaleCommand
	svc := &fakeService{shipSale: func(cmd command.ShipSaleCommand) (*domain.Sale, error) {
		got = cmd
		return &domain.Sale{ID: id, Status: domain.SaleShipped}, nil
	}}

	rec, _ := do(t, newTestRouter(svc), http.MethodPost, "/api/sales/"+id.String()+"/ship", map[string]any{
		"carrier_name":    "DHL",
		"tracking_number": "TRK-1",
		"shipping_cost":   "4.20",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got.SaleID)
	assert.Equal(t, "DHL", got.CarrierName)
	assert.Equal(t, "4.2", got.ShippingCost.String())
}

func TestAdjustStockSignedQuantity(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	var got command.AdjustStockCommand
	svc := &fakeService{adjust: func(cmd command.AdjustStockCommand) (*command.AdjustStockResult, error) {
		got = cmd
		return &command.AdjustStockResult{}, nil
	}}

	rec, _ := do(t, newTestRouter(svc), http.MethodPost, "/api/stock/adjustments", map[string]any{
		"product_id":     productID,
		"warehouse_id":   warehouseID,
		"quantity":       "-2",
		"serial_numbers": []string{"SN-1", "SN-2"},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, got.Delta.Equal(decimal.NewFromInt(-2)))
	assert.Equal(t, []string{"SN-1", "SN-2"}, got.Lot.SerialNumbers)
}

func TestListTransactionsPagesWithCursor(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeService{}
	for i := range 3 {
		svc.history = append(svc.history, inventory.InventoryTransaction{
			ID:        uuid.New(),
			Quantity:  decimal.NewFromInt(int64(i + 1)),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	router := newTestRouter(svc)

	rec, resp := do(t, router, http.MethodGet, "/api/transactions?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["transactions"], 2)
	next, _ := data["next_cursor"].(string)
	require.NotEmpty(t, next)

	rec, resp = do(t, router, http.MethodGet, "/api/transactions?limit=2&cursor="+next, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]any)
	require.Len(t, data["transactions"], 1)
	assert.Equal(t, svc.history[2].ID.String(), data["transactions"].([]any)[0].(map[string]any)["id"])
	assert.NotContains(t, data, "next_cursor")
}

func TestListTransactionsRejectsBadFilter(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec, resp := do(t, router, http.MethodGet, "/api/transactions?reference_type=gift", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.ErrValidation.Error(), resp.Kind)

	rec, _ = do(t, router, http.MethodGet, "/api/transactions?cursor=%21%21", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/transactions?product_id=42", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMiddlewares(t *testing.T) {
	router := mux.NewRouter()
	RegisterMiddlewares(router, &MiddlewareConfig{EnableRecovery: true, EnableMetrics: true})
	router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	router.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, Response{Success: true})
	})

	rec, resp := do(t, router, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = do(t, router, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
