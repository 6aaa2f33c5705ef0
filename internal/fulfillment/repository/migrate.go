package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/logger"
)

type MigrateOptions struct {
	CreateChecks    bool // CHECK constraints backing the ledger invariants
	CreateFKsViaSQL bool // references to catalog tables
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{CreateChecks: true, CreateFKsViaSQL: true}
}

var models = []any{
	&catalog.Product{},
	&catalog.Warehouse{},
	&catalog.Customer{},
	&catalog.Supplier{},
	&inventory.WarehouseStock{},
	&inventory.InventoryTransaction{},
	&inventory.SerialNumber{},
	&inventory.Batch{},
	&domain.Sale{},
	&domain.SaleItem{},
	&domain.Shipment{},
	&domain.PurchaseOrder{},
	&domain.PurchaseOrderItem{},
	&domain.WarehouseTransfer{},
	&domain.WarehouseTransferItem{},
}

const availableColumn = `
ALTER TABLE warehouse_stock
	ADD COLUMN IF NOT EXISTS available_quantity numeric(12,2)
	GENERATED ALWAYS AS (quantity - reserved_quantity) STORED`

type constraint struct {
	table, name, definition string
}

var checks = []constraint{
	{"warehouse_stock", "chk_stock_quantity_nonneg", "CHECK (quantity >= 0)"},
	{"warehouse_stock", "chk_stock_reserved_nonneg", "CHECK (reserved_quantity >= 0)"},
	{"warehouse_stock", "chk_stock_reserved_le_quantity", "CHECK (reserved_quantity <= quantity)"},
	{"inventory_transactions", "chk_txn_quantity_positive", "CHECK (quantity > 0)"},
	{"inventory_transactions", "chk_txn_type_allowed", "CHECK (transaction_type IN ('inbound','outbound'))"},
	{"inventory_transactions", "chk_txn_reference_allowed", "CHECK (reference_type IN ('sale','purchase','transfer','adjustment'))"},
	{"batches", "chk_batch_available_range", "CHECK (available_quantity >= 0 AND available_quantity <= quantity)"},
	{"serial_numbers", "chk_serial_status_allowed", "CHECK (status IN ('available','reserved','sold'))"},
	{"sales", "chk_sale_status_allowed", "CHECK (status IN ('draft','confirmed','shipped','delivered','cancelled'))"},
	{"sales", "chk_sale_paid_le_total", "CHECK (paid_amount >= 0 AND paid_amount <= total_amount)"},
	{"sale_items", "chk_sale_item_quantity_positive", "CHECK (quantity > 0)"},
	{"sale_items", "chk_sale_item_reserved_range", "CHECK (reserved_quantity >= 0 AND reserved_quantity <= quantity)"},
	{"purchase_orders", "chk_po_status_allowed", "CHECK (status IN ('pending','received','cancelled'))"},
	{"purchase_order_items", "chk_po_item_quantity_positive", "CHECK (quantity > 0)"},
	{"purchase_order_items", "chk_po_item_received_range", "CHECK (received_qty >= 0 AND received_qty <= quantity)"},
	{"warehouse_transfers", "chk_transfer_distinct_warehouses", "CHECK (from_warehouse_id <> to_warehouse_id)"},
	{"warehouse_transfers", "chk_transfer_status_allowed", "CHECK (status IN ('pending','in_transit','completed','cancelled'))"},
	{"warehouse_transfer_items", "chk_transfer_item_quantity_positive", "CHECK (quantity > 0)"},
	{"warehouse_transfer_items", "chk_transfer_item_received_range",
		"CHECK (received_quantity IS NULL OR (received_quantity >= 0 AND received_quantity <= quantity))"},
}

var foreignKeys = []constraint{
	{"warehouse_stock", "fk_stock_product", "FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT"},
	{"warehouse_stock", "fk_stock_warehouse", "FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT"},
	{"inventory_transactions", "fk_txn_product", "FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT"},
	{"inventory_transactions", "fk_txn_warehouse", "FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT"},
	{"serial_numbers", "fk_serial_product", "FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT"},
	{"batches", "fk_batch_product", "FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT"},
	{"sales", "fk_sale_customer", "FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE RESTRICT"},
	{"sale_items", "fk_sale_item_product", "FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT"},
	{"purchase_orders", "fk_po_supplier", "FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE RESTRICT"},
	{"purchase_orders", "fk_po_warehouse", "FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT"},
	{"warehouse_transfers", "fk_transfer_from", "FOREIGN KEY (from_warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT"},
	{"warehouse_transfers", "fk_transfer_to", "FOREIGN KEY (to_warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT"},
}

func (c constraint) apply(ctx context.Context, db *gorm.DB) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s, ADD CONSTRAINT %s %s",
		c.table, c.name, c.name, c.definition)
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to add %s on %s: %w", c.name, c.table, err)
	}
	return nil
}

// Migrate creates the ledger schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *gorm.DB, opt MigrateOptions) error {
	log := logger.Component("migrate")
	log.Info().Int("models", len(models)).Msg("Running schema migration")

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.WithContext(ctx).Exec(availableColumn).Error; err != nil {
		return fmt.Errorf("failed to add available_quantity: %w", err)
	}

	if opt.CreateChecks {
		for _, c := range checks {
			if err := c.apply(ctx, db); err != nil {
				return err
			}
		}
		log.Info().Int("count", len(checks)).Msg("CHECK constraints created")
	}

	if opt.CreateFKsViaSQL {
		for _, fk := range foreignKeys {
			if err := fk.apply(ctx, db); err != nil {
				return err
			}
		}
		log.Info().Int("count", len(foreignKeys)).Msg("Foreign keys created")
	}

	log.Info().Msg("Schema migration completed")
	return nil
}
