package fulfillment

import (
	"gorm.io/gorm"

	cataloghttp "github.com/tair/fulfillment-ledger/internal/catalog/delivery/http"
	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	catalogrepo "github.com/tair/fulfillment-ledger/internal/catalog/repository"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/delivery/http"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/repository"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase"
)

// Handlers are the HTTP entry points of the service.
type Handlers struct {
	Coordinator *usecase.Coordinator
	Fulfillment *http.FulfillmentHandler
	Catalog     *cataloghttp.CatalogHandler
}

// ProvideUnitOfWork provides the gorm unit of work
func ProvideUnitOfWork(db *gorm.DB) domain.UnitOfWork {
	return repository.NewGormUnitOfWork(db)
}

// ProvideCatalogRepository provides the catalog repository
func ProvideCatalogRepository(db *gorm.DB) catalog.Repository {
	return catalogrepo.NewGormCatalogRepository(db)
}

// ProvideService exposes the coordinator to the HTTP layer
func ProvideService(c *usecase.Coordinator) http.Service {
	return c
}
