package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the Fulfillment Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateSale godoc
// @Summary Create draft sale
// @Description Create a draft sale. Missing unit prices take the product selling price.
// @Tags Sales
// @Accept json
// @Produce json
// @Param request body CreateSaleRequest true "Sale data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales [post]
func (h *FulfillmentHandler) CreateSaleDoc() {}

// ListSales godoc
// @Summary List sales
// @Description List sales newest first with optional status and customer filters
// @Tags Sales
// @Produce json
// @Param status query string false "Sale status"
// @Param customer_id query string false "Customer ID"
// @Param limit query int false "Limit (default 10, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{sales=array,total=int,limit=int,offset=int}}
// @Router /api/sales [get]
func (h *FulfillmentHandler) ListSalesDoc() {}

// GetSale godoc
// @Summary Get sale by ID
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id} [get]
func (h *FulfillmentHandler) GetSaleDoc() {}

// UpdateSale godoc
// @Summary Update sale
// @Description Replace the lines and header fields of a draft or confirmed sale
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param request body UpdateSaleRequest true "Sale changes"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Failure 422 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id} [put]
func (h *FulfillmentHandler) UpdateSaleDoc() {}

// ConfirmSale godoc
// @Summary Confirm sale
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Failure 422 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id}/confirm [post]
func (h *FulfillmentHandler) ConfirmSaleDoc() {}

// ShipSale godoc
// @Summary Ship sale
// @Description Decrement stock for every line and record the shipment
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param request body ShipSaleRequest true "Shipment data"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id}/ship [post]
func (h *FulfillmentHandler) ShipSaleDoc() {}

// DeliverSale godoc
// @Summary Mark sale delivered
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id}/deliver [post]
func (h *FulfillmentHandler) DeliverSaleDoc() {}

// CancelSale godoc
// @Summary Cancel sale
// @Description Cancel a draft or confirmed sale and release its reservations
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id}/cancel [post]
func (h *FulfillmentHandler) CancelSaleDoc() {}

// RecordPayment godoc
// @Summary Record payment
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/sales/{id}/payments [post]
func (h *FulfillmentHandler) RecordPaymentDoc() {}

// CreatePurchaseOrder godoc
// @Summary Create purchase order
// @Tags Purchasing
// @Accept json
// @Produce json
// @Param request body CreatePurchaseOrderRequest true "Purchase order data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/purchase-orders [post]
func (h *FulfillmentHandler) CreatePurchaseOrderDoc() {}

// GetPurchaseOrder godoc
// @Summary Get purchase order by ID
// @Tags Purchasing
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/purchase-orders/{id} [get]
func (h *FulfillmentHandler) GetPurchaseOrderDoc() {}

// ReceivePurchaseOrderItem godoc
// @Summary Receive purchase order item
// @Description Receive part or all of one line into the order's warehouse
// @Tags Purchasing
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param item_id path string true "Item ID"
// @Param request body ReceiveItemRequest true "Receipt"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/purchase-orders/{id}/items/{item_id}/receive [post]
func (h *FulfillmentHandler) ReceivePurchaseOrderItemDoc() {}

// CancelPurchaseOrder godoc
// @Summary Cancel purchase order
// @Tags Purchasing
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/purchase-orders/{id}/cancel [post]
func (h *FulfillmentHandler) CancelPurchaseOrderDoc() {}

// CreateTransfer godoc
// @Summary Create warehouse transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body CreateTransferRequest true "Transfer data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/transfers [post]
func (h *FulfillmentHandler) CreateTransferDoc() {}

// GetTransfer godoc
// @Summary Get transfer by ID
// @Tags Transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/transfers/{id} [get]
func (h *FulfillmentHandler) GetTransferDoc() {}

// DispatchTransfer godoc
// @Summary Dispatch transfer
// @Tags Transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/transfers/{id}/dispatch [post]
func (h *FulfillmentHandler) DispatchTransferDoc() {}

// CompleteTransfer godoc
// @Summary Complete transfer
// @Description Move stock between warehouses. Lines without a received quantity arrive in full.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param request body CompleteTransferRequest false "Received quantities"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/transfers/{id}/complete [post]
func (h *FulfillmentHandler) CompleteTransferDoc() {}

// CancelTransfer godoc
// @Summary Cancel transfer
// @Tags Transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/transfers/{id}/cancel [post]
func (h *FulfillmentHandler) CancelTransferDoc() {}

// AdjustStock godoc
// @Summary Adjust stock
// @Description Apply a signed manual correction to one warehouse
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body AdjustStockRequest true "Adjustment"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/stock/adjustments [post]
func (h *FulfillmentHandler) AdjustStockDoc() {}

// GetStock godoc
// @Summary Get stock level
// @Tags Stock
// @Produce json
// @Param product_id path string true "Product ID"
// @Param warehouse_id path string true "Warehouse ID"
// @Success 200 {object} object{success=bool,data=object{product_id=string,warehouse_id=string,quantity=string,reserved_quantity=string,available_quantity=string}}
// @Router /api/stock/{product_id}/{warehouse_id} [get]
func (h *FulfillmentHandler) GetStockDoc() {}

// LowStock godoc
// @Summary List low stock products
// @Tags Stock
// @Produce json
// @Param limit query int false "Limit (default 100, max 500)"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/stock/low [get]
func (h *FulfillmentHandler) LowStockDoc() {}

// Reconcile godoc
// @Summary Reconcile product stock
// @Description Compare the transaction log balance with the stock rows of a product
// @Tags Stock
// @Produce json
// @Param product_id path string true "Product ID"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/products/{product_id}/reconciliation [get]
func (h *FulfillmentHandler) ReconcileDoc() {}

// ListTransactions godoc
// @Summary List inventory transactions
// @Description Newest first. Pass next_cursor back as cursor to read the following page.
// @Tags Stock
// @Produce json
// @Param product_id query string false "Product ID"
// @Param warehouse_id query string false "Warehouse ID"
// @Param reference_type query string false "sale, purchase, transfer or adjustment"
// @Param reference_id query string false "Reference ID"
// @Param cursor query string false "Cursor"
// @Param limit query int false "Page size (default 100, max 1000)"
// @Success 200 {object} object{success=bool,data=object{transactions=array,next_cursor=string}}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Router /api/transactions [get]
func (h *FulfillmentHandler) ListTransactionsDoc() {}

// ExpiringBatches godoc
// @Summary List expiring batches
// @Tags Tracking
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Param limit query int false "Limit"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/batches/expiring [get]
func (h *FulfillmentHandler) ExpiringBatchesDoc() {}

// RegisterSerialNumbers godoc
// @Summary Register serial numbers
// @Description Attach serial numbers to units already on hand
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body RegisterSerialsRequest true "Serial numbers"
// @Success 201 {object} object{success=bool,message=string,data=array}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/serials [post]
func (h *FulfillmentHandler) RegisterSerialNumbersDoc() {}

// ListSerialNumbers godoc
// @Summary List serial numbers
// @Tags Tracking
// @Produce json
// @Param product_id query string false "Product ID"
// @Param warehouse_id query string false "Warehouse ID"
// @Param sale_id query string false "Sale ID"
// @Param status query string false "available, reserved or sold"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/serials [get]
func (h *FulfillmentHandler) ListSerialNumbersDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *FulfillmentHandler) HealthCheckDoc() {}
