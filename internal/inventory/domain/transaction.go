package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the direction of a stock movement.
type TransactionType string

const (
	Inbound  TransactionType = "inbound"
	Outbound TransactionType = "outbound"
)

// ReferenceType names what caused a movement.
type ReferenceType string

const (
	RefSale       ReferenceType = "sale"
	RefPurchase   ReferenceType = "purchase"
	RefTransfer   ReferenceType = "transfer"
	RefAdjustment ReferenceType = "adjustment"
)

// Valid reports whether r is a known reference type.
func (r ReferenceType) Valid() bool {
	switch r {
	case RefSale, RefPurchase, RefTransfer, RefAdjustment:
		return true
	}
	return false
}

// InventoryTransaction is one immutable row of the stock audit trail.
type InventoryTransaction struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID       uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index:idx_txn_product_created,priority:1"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	TransactionType TransactionType `json:"transaction_type" gorm:"type:varchar(20);not null"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	BalanceAfter    decimal.Decimal `json:"balance_after" gorm:"type:numeric(12,2);not null"`
	ReferenceType   ReferenceType   `json:"reference_type" gorm:"type:varchar(50);not null;index:idx_txn_reference,priority:1"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty" gorm:"type:uuid;index:idx_txn_reference,priority:2"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;index:idx_txn_product_created,priority:2"`
}

// TableName specifies the table name
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Signed returns the quantity with the sign of its direction.
func (t *InventoryTransaction) Signed() decimal.Decimal {
	if t.TransactionType == Outbound {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// NewTransaction builds the audit row for a signed delta. It returns nil for a
// zero delta since the log only holds positive quantities.
func NewTransaction(productID, warehouseID uuid.UUID, delta, balanceAfter decimal.Decimal,
	ref ReferenceType, refID *uuid.UUID, notes string) *InventoryTransaction {
	if delta.IsZero() {
		return nil
	}
	txn := &InventoryTransaction{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		TransactionType: Inbound,
		Quantity:        delta.Abs(),
		BalanceAfter:    balanceAfter,
		ReferenceType:   ref,
		ReferenceID:     refID,
		Notes:           notes,
	}
	if delta.IsNegative() {
		txn.TransactionType = Outbound
	}
	return txn
}

// Cursor is a position in newest-first history order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the position of a transaction.
func CursorOf(t InventoryTransaction) *Cursor {
	return &Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
}

// String encodes the cursor as an opaque token.
func (c Cursor) String() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixMicro(), 10) + ":" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a token produced by Cursor.String.
func ParseCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	micros, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("invalid cursor: missing separator")
	}
	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: time.UnixMicro(us).UTC(), ID: uid}, nil
}

// HistoryFilter selects and positions a history read.
type HistoryFilter struct {
	ProductID     *uuid.UUID
	WarehouseID   *uuid.UUID
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	After         *Cursor
	PageSize      int
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Normalize applies page size bounds.
func (f HistoryFilter) Normalize() HistoryFilter {
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// PageFunc loads the page that follows f.After.
type PageFunc func(ctx context.Context, f HistoryFilter) ([]InventoryTransaction, error)

// TransactionIterator walks history lazily, one page at a time.
//
//	it := log.History(filter)
//	for it.Next(ctx) {
//		txn := it.Transaction()
//	}
//	if err := it.Err(); err != nil { ... }
//
// Resuming from Cursor() in a new filter continues right after the last
// transaction returned.
type TransactionIterator struct {
	fetch   PageFunc
	filter  HistoryFilter
	page    []InventoryTransaction
	pos     int
	current InventoryTransaction
	started bool
	done    bool
	err     error
}

// NewTransactionIterator creates an iterator over fetch.
func NewTransactionIterator(filter HistoryFilter, fetch PageFunc) *TransactionIterator {
	return &TransactionIterator{fetch: fetch, filter: filter.Normalize()}
}

// Next advances to the next transaction, loading a page when needed.
func (it *TransactionIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.pos >= len(it.page) {
		if it.done {
			return false
		}
		if it.started {
			it.filter.After = CursorOf(it.current)
		}
		page, err := it.fetch(ctx, it.filter)
		if err != nil {
			it.err = err
			return false
		}
		it.page, it.pos = page, 0
		if len(page) < it.filter.PageSize {
			it.done = true
		}
		if len(page) == 0 {
			return false
		}
	}
	it.current = it.page[it.pos]
	it.pos++
	it.started = true
	return true
}

// Transaction returns the current transaction.
func (it *TransactionIterator) Transaction() InventoryTransaction {
	return it.current
}

// Cursor returns the position of the current transaction, or the starting
// position before the first call to Next.
func (it *TransactionIterator) Cursor() *Cursor {
	if !it.started {
		return it.filter.After
	}
	return CursorOf(it.current)
}

// Err returns the first fetch error.
func (it *TransactionIterator) Err() error {
	return it.err
}

// All adapts the iterator to a range-over-func sequence. A fetch error is
// yielded once as the final element.
func (it *TransactionIterator) All(ctx context.Context) iter.Seq2[InventoryTransaction, error] {
	return func(yield func(InventoryTransaction, error) bool) {
		for it.Next(ctx) {
			if !yield(it.Transaction(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(InventoryTransaction{}, err)
		}
	}
}

// TransactionLog is the append-only audit trail.
type TransactionLog interface {
	Record(ctx context.Context, txn *InventoryTransaction) error
	History(f HistoryFilter) *TransactionIterator
	Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
