package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/query"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// Service is what the HTTP layer needs from the fulfillment core.
type Service interface {
	CreateSale(ctx context.Context, cmd command.CreateSaleCommand) (*domain.Sale, error)
	UpdateSale(ctx context.Context, cmd command.UpdateSaleCommand) (*domain.Sale, error)
	ConfirmSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ShipSale(ctx context.Context, cmd command.ShipSaleCommand) (*domain.Sale, error)
	DeliverSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	CancelSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	RecordPayment(ctx context.Context, cmd command.RecordPaymentCommand) (*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context, q query.ListSalesQuery) (*query.SalePage, error)

	CreatePurchaseOrder(ctx context.Context, cmd command.CreatePurchaseOrderCommand) (*domain.PurchaseOrder, error)
	ReceivePurchaseOrderItem(ctx context.Context, cmd command.ReceivePurchaseOrderCommand) (*domain.PurchaseOrder, error)
	CancelPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)

	CreateTransfer(ctx context.Context, cmd command.CreateTransferCommand) (*domain.WarehouseTransfer, error)
	DispatchTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error)
	CompleteTransfer(ctx context.Context, cmd command.CompleteTransferCommand) (*domain.WarehouseTransfer, error)
	CancelTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error)

	AdjustStock(ctx context.Context, cmd command.AdjustStockCommand) (*command.AdjustStockResult, error)
	GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (inventory.StockSnapshot, error)
	ListTransactions(f inventory.HistoryFilter) *inventory.TransactionIterator
	Reconcile(ctx context.Context, productID uuid.UUID) (*query.Reconciliation, error)
	LowStock(ctx context.Context, limit int) ([]catalog.StockLevel, error)
	ExpiringBatches(ctx context.Context, withinDays, limit int) ([]inventory.Batch, error)
	RegisterSerialNumbers(ctx context.Context, cmd command.RegisterSerialsCommand) ([]inventory.SerialNumber, error)
	ListSerialNumbers(ctx context.Context, f inventory.SerialFilter) ([]inventory.SerialNumber, error)
}

// FulfillmentHandler handles HTTP requests for sales, purchasing, transfers
// and stock
type FulfillmentHandler struct {
	svc      Service
	validate *validator.Validate
}

// NewFulfillmentHandler creates a new fulfillment handler
func NewFulfillmentHandler(svc Service) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// RegisterRoutes registers all fulfillment routes
func (h *FulfillmentHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sales", h.ListSales).Methods("GET")
	api.HandleFunc("/sales", h.CreateSale).Methods("POST")
	api.HandleFunc("/sales/{id}", h.GetSale).Methods("GET")
	api.HandleFunc("/sales/{id}", h.UpdateSale).Methods("PUT")
	api.HandleFunc("/sales/{id}/confirm", h.ConfirmSale).Methods("POST")
	api.HandleFunc("/sales/{id}/ship", h.ShipSale).Methods("POST")
	api.HandleFunc("/sales/{id}/deliver", h.DeliverSale).Methods("POST")
	api.HandleFunc("/sales/{id}/cancel", h.CancelSale).Methods("POST")
	api.HandleFunc("/sales/{id}/payments", h.RecordPayment).Methods("POST")

	api.HandleFunc("/purchase-orders", h.CreatePurchaseOrder).Methods("POST")
	api.HandleFunc("/purchase-orders/{id}", h.GetPurchaseOrder).Methods("GET")
	api.HandleFunc("/purchase-orders/{id}/items/{item_id}/receive", h.ReceivePurchaseOrderItem).Methods("POST")
	api.HandleFunc("/purchase-orders/{id}/cancel", h.CancelPurchaseOrder).Methods("POST")

	api.HandleFunc("/transfers", h.CreateTransfer).Methods("POST")
	api.HandleFunc("/transfers/{id}", h.GetTransfer).Methods("GET")
	api.HandleFunc("/transfers/{id}/dispatch", h.DispatchTransfer).Methods("POST")
	api.HandleFunc("/transfers/{id}/complete", h.CompleteTransfer).Methods("POST")
	api.HandleFunc("/transfers/{id}/cancel", h.CancelTransfer).Methods("POST")

	api.HandleFunc("/stock/adjustments", h.AdjustStock).Methods("POST")
	api.HandleFunc("/stock/low", h.LowStock).Methods("GET")
	api.HandleFunc("/stock/{product_id}/{warehouse_id}", h.GetStock).Methods("GET")
	api.HandleFunc("/products/{product_id}/reconciliation", h.Reconcile).Methods("GET")
	api.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/batches/expiring", h.ExpiringBatches).Methods("GET")
	api.HandleFunc("/serials", h.RegisterSerialNumbers).Methods("POST")
	api.HandleFunc("/serials", h.ListSerialNumbers).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *FulfillmentHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Fulfillment service is healthy",
		})
	}).Methods("GET")
}

// decode reads and validates a JSON body into dst.
func (h *FulfillmentHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
			Kind:    apperr.ErrValidation.Error(),
		})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q", name, raw)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func respondResult(w http.ResponseWriter, r *http.Request, status int, message string, data any, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// transition runs a body-less state change on the {id} resource.
func transition[T any](fn func(ctx context.Context, id uuid.UUID) (T, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		out, err := fn(r.Context(), id)
		respondResult(w, r, http.StatusOK, message, out, err)
	}
}

// CreateSale handles POST /api/sales
func (h *FulfillmentHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), req.command())
	respondResult(w, r, http.StatusCreated, "Sale created successfully", sale, err)
}

// GetSale handles GET /api/sales/{id}
func (h *FulfillmentHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.GetSale, "")(w, r)
}

// ListSales handles GET /api/sales
func (h *FulfillmentHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryID(r, "customer_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.svc.ListSales(r.Context(), query.ListSalesQuery{
		Status:     domain.SaleStatus(r.URL.Query().Get("status")),
		CustomerID: customerID,
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	})
	respondResult(w, r, http.StatusOK, "", page, err)
}

// UpdateSale handles PUT /api/sales/{id}
func (h *FulfillmentHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), req.command(id))
	respondResult(w, r, http.StatusOK, "Sale updated successfully", sale, err)
}

// ConfirmSale handles POST /api/sales/{id}/confirm
func (h *FulfillmentHandler) ConfirmSale(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.ConfirmSale, "Sale confirmed")(w, r)
}

// ShipSale handles POST /api/sales/{id}/ship
func (h *FulfillmentHandler) ShipSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ShipSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.svc.ShipSale(r.Context(), command.ShipSaleCommand{
		SaleID:         id,
		CarrierName:    req.CarrierName,
		TrackingNumber: req.TrackingNumber,
		ShippingMethod: req.ShippingMethod,
		ShippingCost:   req.ShippingCost,
	})
	respondResult(w, r, http.StatusOK, "Sale shipped", sale, err)
}

// DeliverSale handles POST /api/sales/{id}/deliver
func (h *FulfillmentHandler) DeliverSale(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.DeliverSale, "Sale delivered")(w, r)
}

// CancelSale handles POST /api/sales/{id}/cancel
func (h *FulfillmentHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.CancelSale, "Sale cancelled")(w, r)
}

// RecordPayment handles POST /api/sales/{id}/payments
func (h *FulfillmentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.svc.RecordPayment(r.Context(), command.RecordPaymentCommand{SaleID: id, Amount: req.Amount})
	respondResult(w, r, http.StatusOK, "Payment recorded", sale, err)
}

// CreatePurchaseOrder handles POST /api/purchase-orders
func (h *FulfillmentHandler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	po, err := h.svc.CreatePurchaseOrder(r.Context(), req.command())
	respondResult(w, r, http.StatusCreated, "Purchase order created successfully", po, err)
}

// GetPurchaseOrder handles GET /api/purchase-orders/{id}
func (h *FulfillmentHandler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.GetPurchaseOrder, "")(w, r)
}

// ReceivePurchaseOrderItem handles POST /api/purchase-orders/{id}/items/{item_id}/receive
func (h *FulfillmentHandler) ReceivePurchaseOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var req ReceiveItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	po, err := h.svc.ReceivePurchaseOrderItem(r.Context(), command.ReceivePurchaseOrderCommand{
		PurchaseOrderID: id,
		ItemID:          itemID,
		Quantity:        req.Quantity,
		Lot:             req.lot(),
	})
	respondResult(w, r, http.StatusOK, "Items received", po, err)
}

// CancelPurchaseOrder handles POST /api/purchase-orders/{id}/cancel
func (h *FulfillmentHandler) CancelPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.CancelPurchaseOrder, "Purchase order cancelled")(w, r)
}

// CreateTransfer handles POST /api/transfers
func (h *FulfillmentHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	transfer, err := h.svc.CreateTransfer(r.Context(), req.command())
	respondResult(w, r, http.StatusCreated, "Transfer created successfully", transfer, err)
}

// GetTransfer handles GET /api/transfers/{id}
func (h *FulfillmentHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.GetTransfer, "")(w, r)
}

// DispatchTransfer handles POST /api/transfers/{id}/dispatch
func (h *FulfillmentHandler) DispatchTransfer(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.DispatchTransfer, "Transfer dispatched")(w, r)
}

// CompleteTransfer handles POST /api/transfers/{id}/complete
func (h *FulfillmentHandler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CompleteTransferRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	transfer, err := h.svc.CompleteTransfer(r.Context(), req.command(id))
	respondResult(w, r, http.StatusOK, "Transfer completed", transfer, err)
}

// CancelTransfer handles POST /api/transfers/{id}/cancel
func (h *FulfillmentHandler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
	transition(h.svc.CancelTransfer, "Transfer cancelled")(w, r)
}

// AdjustStock handles POST /api/stock/adjustments
func (h *FulfillmentHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.AdjustStock(r.Context(), command.AdjustStockCommand{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Delta:       req.Quantity,
		Notes:       req.Notes,
		Lot:         req.lot(),
	})
	respondResult(w, r, http.StatusCreated, "Stock adjusted", result, err)
}

// GetStock handles GET /api/stock/{product_id}/{warehouse_id}
func (h *FulfillmentHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	warehouseID, ok := pathID(w, r, "warehouse_id")
	if !ok {
		return
	}
	snap, err := h.svc.GetStock(r.Context(), productID, warehouseID)
	respondResult(w, r, http.StatusOK, "", snap, err)
}

// LowStock handles GET /api/stock/low
func (h *FulfillmentHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.LowStock(r.Context(), queryInt(r, "limit"))
	respondResult(w, r, http.StatusOK, "", levels, err)
}

// Reconcile handles GET /api/products/{product_id}/reconciliation
func (h *FulfillmentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	report, err := h.svc.Reconcile(r.Context(), productID)
	respondResult(w, r, http.StatusOK, "", report, err)
}

// ListTransactions handles GET /api/transactions
func (h *FulfillmentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := historyFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, next, err := query.ReadPage(r.Context(), h.svc.ListTransactions(f), f.PageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := TransactionPage{Transactions: page}
	if next != nil {
		out.NextCursor = next.String()
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

func historyFilter(r *http.Request) (inventory.HistoryFilter, error) {
	var (
		f   inventory.HistoryFilter
		err error
	)
	if f.ProductID, err = queryID(r, "product_id"); err != nil {
		return f, err
	}
	if f.WarehouseID, err = queryID(r, "warehouse_id"); err != nil {
		return f, err
	}
	if f.ReferenceID, err = queryID(r, "reference_id"); err != nil {
		return f, err
	}
	if ref := r.URL.Query().Get("reference_type"); ref != "" {
		f.ReferenceType = inventory.ReferenceType(ref)
		if !f.ReferenceType.Valid() {
			return f, apperr.Validation("unknown reference_type %q", ref)
		}
	}
	if token := r.URL.Query().Get("cursor"); token != "" {
		if f.After, err = inventory.ParseCursor(token); err != nil {
			return f, apperr.Validation("%s", err.Error())
		}
	}
	f.PageSize = queryInt(r, "limit")
	return f.Normalize(), nil
}

// ExpiringBatches handles GET /api/batches/expiring
func (h *FulfillmentHandler) ExpiringBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.svc.ExpiringBatches(r.Context(), queryInt(r, "days"), queryInt(r, "limit"))
	respondResult(w, r, http.StatusOK, "", batches, err)
}

// RegisterSerialNumbers handles POST /api/serials
func (h *FulfillmentHandler) RegisterSerialNumbers(w http.ResponseWriter, r *http.Request) {
	var req RegisterSerialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	serials, err := h.svc.RegisterSerialNumbers(r.Context(), command.RegisterSerialsCommand{
		ProductID:     req.ProductID,
		WarehouseID:   req.WarehouseID,
		SerialNumbers: req.SerialNumbers,
	})
	respondResult(w, r, http.StatusCreated, "Serial numbers registered", serials, err)
}

// ListSerialNumbers handles GET /api/serials
func (h *FulfillmentHandler) ListSerialNumbers(w http.ResponseWriter, r *http.Request) {
	var (
		f   = inventory.SerialFilter{Status: inventory.SerialStatus(r.URL.Query().Get("status"))}
		err error
	)
	if f.ProductID, err = queryID(r, "product_id"); err != nil {
		respondError(w, r, err)
		return
	}
	if f.WarehouseID, err = queryID(r, "warehouse_id"); err != nil {
		respondError(w, r, err)
		return
	}
	if f.SaleID, err = queryID(r, "sale_id"); err != nil {
		respondError(w, r, err)
		return
	}
	f.Limit, f.Offset = queryInt(r, "limit"), queryInt(r, "offset")
	serials, err := h.svc.ListSerialNumbers(r.Context(), f)
	respondResult(w, r, http.StatusOK, "", serials, err)
}
