package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// PostgreSQL SQLSTATE codes the ledger reacts to.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
)

// stockTables hold counters whose CHECK constraints encode availability.
var stockTables = map[string]bool{
	"warehouse_stock": true,
	"batches":         true,
}

// MapError classifies driver errors into apperr kinds. Errors that are already
// classified, or that carry nothing recognizable, are returned unchanged.
func MapError(err error) error {
	if err == nil || apperr.KindOf(err) != nil {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.Error{Kind: apperr.ErrNotFound, Err: err}
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return apperr.ConstraintViolation(describe(pqErr), err)
	case codeCheckViolation:
		if stockTables[pqErr.Table] || strings.HasPrefix(pqErr.Constraint, "chk_stock_") {
			return &apperr.Error{Kind: apperr.ErrInsufficientStock, Message: describe(pqErr), Err: err}
		}
		return apperr.ConstraintViolation(describe(pqErr), err)
	case codeForeignKeyViolation:
		return &apperr.Error{Kind: apperr.ErrNotFound, Message: describe(pqErr), Err: err}
	}
	return err
}

func describe(e *pq.Error) string {
	if e.Constraint != "" {
		return e.Constraint
	}
	return e.Message
}
