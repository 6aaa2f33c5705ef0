//go:build wireinject
// +build wireinject

package fulfillment

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	cataloghttp "github.com/tair/fulfillment-ledger/internal/catalog/delivery/http"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/delivery/http"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
	"github.com/tair/fulfillment-ledger/internal/inventory/cache"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideUnitOfWork,
	ProvideCatalogRepository,
)

var HandlerSet = wire.NewSet(
	usecase.NewCoordinator,
	ProvideService,
	http.NewFulfillmentHandler,
	cataloghttp.NewCatalogHandler,
	wire.Struct(new(Handlers), "*"),
)

// InitializeHandlers initializes the HTTP handlers with all dependencies
func InitializeHandlers(
	db *gorm.DB,
	stockCache *cache.StockCache,
	publisher domain.EventPublisher,
	policy command.ReservationPolicy,
	numbers *numbering.Generator,
) (*Handlers, error) {
	wire.Build(
		RepositorySet,
		HandlerSet,
	)
	return nil, nil
}
