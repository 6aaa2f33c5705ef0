package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
)

type SaleItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  decimal.Decimal  `json:"discount"`
	Tax       decimal.Decimal  `json:"tax"`
}

func saleItems(in []SaleItemRequest) []command.SaleItemInput {
	out := make([]command.SaleItemInput, len(in))
	for i, it := range in {
		out[i] = command.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Tax:       it.Tax,
		}
	}
	return out
}

type CreateSaleRequest struct {
	SaleNumber      string            `json:"sale_number" validate:"omitempty,max=50"`
	CustomerID      uuid.UUID         `json:"customer_id" validate:"required"`
	WarehouseID     *uuid.UUID        `json:"warehouse_id,omitempty"`
	Items           []SaleItemRequest `json:"items" validate:"dive"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
	ShippingAddress string            `json:"shipping_address"`
	Notes           string            `json:"notes"`
}

func (r CreateSaleRequest) command() command.CreateSaleCommand {
	return command.CreateSaleCommand{
		SaleNumber:      r.SaleNumber,
		CustomerID:      r.CustomerID,
		WarehouseID:     r.WarehouseID,
		Items:           saleItems(r.Items),
		DiscountAmount:  r.DiscountAmount,
		DueDate:         r.DueDate,
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
	}
}

type UpdateSaleRequest struct {
	Items           []SaleItemRequest `json:"items" validate:"dive"`
	WarehouseID     *uuid.UUID        `json:"warehouse_id,omitempty"`
	DiscountAmount  *decimal.Decimal  `json:"discount_amount,omitempty"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
	ShippingAddress *string           `json:"shipping_address,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
}

func (r UpdateSaleRequest) command(id uuid.UUID) command.UpdateSaleCommand {
	return command.UpdateSaleCommand{
		SaleID:          id,
		Items:           saleItems(r.Items),
		WarehouseID:     r.WarehouseID,
		DiscountAmount:  r.DiscountAmount,
		DueDate:         r.DueDate,
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
	}
}

type ShipSaleRequest struct {
	CarrierName    string          `json:"carrier_name" validate:"max=100"`
	TrackingNumber string          `json:"tracking_number" validate:"max=100"`
	ShippingMethod string          `json:"shipping_method" validate:"max=50"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type PurchaseItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreatePurchaseOrderRequest struct {
	PONumber     string                `json:"po_number" validate:"omitempty,max=50"`
	SupplierID   uuid.UUID             `json:"supplier_id" validate:"required"`
	WarehouseID  uuid.UUID             `json:"warehouse_id" validate:"required"`
	Items        []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	ExpectedDate *time.Time            `json:"expected_date,omitempty"`
	Notes        string                `json:"notes"`
}

func (r CreatePurchaseOrderRequest) command() command.CreatePurchaseOrderCommand {
	items := make([]command.PurchaseItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = command.PurchaseItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return command.CreatePurchaseOrderCommand{
		PONumber:     r.PONumber,
		SupplierID:   r.SupplierID,
		WarehouseID:  r.WarehouseID,
		Items:        items,
		ExpectedDate: r.ExpectedDate,
		Notes:        r.Notes,
	}
}

// LotRequest names the lot and units of an inbound movement.
type LotRequest struct {
	BatchNumber       string     `json:"batch_number" validate:"max=100"`
	ManufacturingDate *time.Time `json:"manufacturing_date,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	SerialNumbers     []string   `json:"serial_numbers" validate:"dive,required,max=100"`
}

func (r LotRequest) lot() command.LotReceipt {
	return command.LotReceipt{
		BatchNumber:       r.BatchNumber,
		ManufacturingDate: r.ManufacturingDate,
		ExpiryDate:        r.ExpiryDate,
		SerialNumbers:     r.SerialNumbers,
	}
}

type ReceiveItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	LotRequest
}

type TransferItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CreateTransferRequest struct {
	TransferNumber  string                `json:"transfer_number" validate:"omitempty,max=50"`
	FromWarehouseID uuid.UUID             `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   uuid.UUID             `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Items           []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes           string                `json:"notes"`
}

func (r CreateTransferRequest) command() command.CreateTransferCommand {
	lines := make([]domain.TransferLine, len(r.Items))
	for i, it := range r.Items {
		lines[i] = domain.TransferLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return command.CreateTransferCommand{
		TransferNumber:  r.TransferNumber,
		FromWarehouseID: r.FromWarehouseID,
		ToWarehouseID:   r.ToWarehouseID,
		Items:           lines,
		Notes:           r.Notes,
	}
}

type ReceivedItemRequest struct {
	ItemID           uuid.UUID       `json:"item_id" validate:"required"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

type CompleteTransferRequest struct {
	Items []ReceivedItemRequest `json:"items" validate:"dive"`
}

func (r CompleteTransferRequest) command(id uuid.UUID) command.CompleteTransferCommand {
	received := make(map[uuid.UUID]decimal.Decimal, len(r.Items))
	for _, it := range r.Items {
		received[it.ItemID] = it.ReceivedQuantity
	}
	return command.CompleteTransferCommand{TransferID: id, Received: received}
}

type AdjustStockRequest struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes"`
	LotRequest
}

type RegisterSerialsRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	WarehouseID   uuid.UUID `json:"warehouse_id" validate:"required"`
	SerialNumbers []string  `json:"serial_numbers" validate:"required,min=1,dive,required,max=100"`
}

// TransactionPage is one page of history with the cursor of the next page.
type TransactionPage struct {
	Transactions any    `json:"transactions"`
	NextCursor   string `json:"next_cursor,omitempty"`
}
