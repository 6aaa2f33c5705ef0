// Package numbering issues human-readable document numbers.
package numbering

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator issues sale, purchase order and transfer numbers.
type Generator struct {
	node *snowflake.Node
	now  func() time.Time
}

// NewGenerator creates a generator bound to a snowflake node (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node, now: time.Now}, nil
}

// SaleNumber returns SALE-YYYYMMDD-XXXXXX with six upper-case hex characters.
func (g *Generator) SaleNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("SALE-%s-%s", g.day(), strings.ToUpper(suffix))
}

// PurchaseOrderNumber returns PO-YYYYMMDD-<id>.
func (g *Generator) PurchaseOrderNumber() string {
	return fmt.Sprintf("PO-%s-%s", g.day(), g.id())
}

// TransferNumber returns TR-YYYYMMDD-<id>.
func (g *Generator) TransferNumber() string {
	return fmt.Sprintf("TR-%s-%s", g.day(), g.id())
}

func (g *Generator) day() string {
	return g.now().UTC().Format("20060102")
}

func (g *Generator) id() string {
	return strings.ToUpper(g.node.Generate().Base36())
}
