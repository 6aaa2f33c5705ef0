package numbering

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorFormats(t *testing.T) {
	g, err := NewGenerator(7)
	require.NoError(t, err)
	g.now = func() time.Time { return time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC) }

	assert.Regexp(t, regexp.MustCompile(`^SALE-20260309-[0-9A-F]{6}$`), g.SaleNumber())
	assert.Regexp(t, regexp.MustCompile(`^PO-20260309-[0-9A-Z]+$`), g.PurchaseOrderNumber())
	assert.Regexp(t, regexp.MustCompile(`^TR-20260309-[0-9A-Z]+$`), g.TransferNumber())
}

func TestGeneratorUnique(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for range 1000 {
		n := g.TransferNumber()
		require.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
}

func TestNewGeneratorRejectsNode(t *testing.T) {
	_, err := NewGenerator(4096)
	assert.Error(t, err)
}
