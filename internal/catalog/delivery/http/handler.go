package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/catalog/usecase/command"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/logger"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CatalogHandler handles HTTP requests for master data
type CatalogHandler struct {
	repo            domain.Repository
	createProduct   *command.CreateProductHandler
	createWarehouse *command.CreateWarehouseHandler
	createCustomer  *command.CreateCustomerHandler
	createSupplier  *command.CreateSupplierHandler
	validate        *validator.Validate
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(repo domain.Repository) *CatalogHandler {
	return &CatalogHandler{
		repo:            repo,
		createProduct:   command.NewCreateProductHandler(repo),
		createWarehouse: command.NewCreateWarehouseHandler(repo),
		createCustomer:  command.NewCreateCustomerHandler(repo),
		createSupplier:  command.NewCreateSupplierHandler(repo),
		validate:        validator.New(),
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/products", h.CreateProduct).Methods("POST")
	api.HandleFunc("/products", h.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	api.HandleFunc("/warehouses", h.CreateWarehouse).Methods("POST")
	api.HandleFunc("/warehouses", h.ListWarehouses).Methods("GET")
	api.HandleFunc("/customers", h.CreateCustomer).Methods("POST")
	api.HandleFunc("/suppliers", h.CreateSupplier).Methods("POST")
}

type CreateProductRequest struct {
	SKU             string          `json:"sku" validate:"required,max=100"`
	Barcode         string          `json:"barcode" validate:"max=100"`
	Name            string          `json:"name" validate:"required,max=255"`
	Description     string          `json:"description"`
	Category        string          `json:"category" validate:"max=100"`
	Brand           string          `json:"brand" validate:"max=100"`
	Unit            string          `json:"unit" validate:"max=20"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	TrackSerials    bool            `json:"track_serials"`
	TrackBatches    bool            `json:"track_batches"`
}

type CreateWarehouseRequest struct {
	Code    string `json:"code" validate:"required,max=50"`
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address"`
}

type CreatePartyRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"omitempty,email"`
	PaymentTerms string `json:"payment_terms" validate:"max=100"`
}

// CreateProduct handles POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.createProduct.Handle(r.Context(), command.CreateProductCommand{
		SKU:             req.SKU,
		Barcode:         req.Barcode,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Brand:           req.Brand,
		Unit:            req.Unit,
		MinStockLevel:   req.MinStockLevel,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		CostPrice:       req.CostPrice,
		SellingPrice:    req.SellingPrice,
		TrackSerials:    req.TrackSerials,
		TrackBatches:    req.TrackBatches,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info(r.Context()).Str("product_id", product.ID.String()).Str("sku", product.SKU).Msg("Product created")
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Product created successfully", Data: product})
}

// ListProducts handles GET /api/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := h.repo.ListProducts(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// GetProduct handles GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid product ID"})
		return
	}

	product, err := h.repo.Product(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: product})
}

// CreateWarehouse handles POST /api/warehouses
func (h *CatalogHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req CreateWarehouseRequest
	if !h.decode(w, r, &req) {
		return
	}

	warehouse, err := h.createWarehouse.Handle(r.Context(), command.CreateWarehouseCommand{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Warehouse created successfully", Data: warehouse})
}

// ListWarehouses handles GET /api/warehouses
func (h *CatalogHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.repo.ListWarehouses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: warehouses})
}

// CreateCustomer handles POST /api/customers
func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if !h.decode(w, r, &req) {
		return
	}

	customer, err := h.createCustomer.Handle(r.Context(), command.CreatePartyCommand{Name: req.Name, Email: req.Email})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Customer created successfully", Data: customer})
}

// CreateSupplier handles POST /api/suppliers
func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if !h.decode(w, r, &req) {
		return
	}

	supplier, err := h.createSupplier.Handle(r.Context(), command.CreatePartyCommand{
		Name:         req.Name,
		Email:        req.Email,
		PaymentTerms: req.PaymentTerms,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Supplier created successfully", Data: supplier})
}

func (h *CatalogHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return false
	}
	return true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrConstraintViolation:
		status = http.StatusConflict
	case apperr.ErrValidation:
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Catalog request failed")
		message = "Internal server error"
	}
	respondJSON(w, status, Response{Success: false, Error: message})
}
