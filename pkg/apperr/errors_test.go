package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestErrorsIsThroughWrapping(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := fmt.Errorf("failed to create transfer: %w", ConstraintViolation("transfer number taken", cause))

	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ErrConstraintViolation, KindOf(err))
}

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock("p-1", "w-1", decimal.NewFromInt(7), decimal.NewFromInt(3))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "insufficient stock: product p-1: warehouse w-1: requested 7, available 3", err.Error())
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("sale", "s-1", "shipped", "ship")
	assert.Equal(t, `invalid transition: sale s-1: cannot ship from status "shipped"`, err.Error())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Nil(t, KindOf(errors.New("boom")))
	assert.Nil(t, KindOf(nil))
}
