// Package worker holds the background jobs of the fulfillment service.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/pkg/logger"
	"github.com/tair/fulfillment-ledger/pkg/metrics"
)

// DefaultBatchSize caps the sales read by one scan.
const DefaultBatchSize = 1000

// PaymentDueFinder lists unpaid sales that are due.
type PaymentDueFinder interface {
	PaymentDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Sale, error)
}

// PaymentDueScanner announces overdue sales with a sale.payment_due event.
// Each sale is announced at most once per process run.
type PaymentDueScanner struct {
	sales     PaymentDueFinder
	publisher domain.EventPublisher
	interval  time.Duration
	batchSize int
	now       func() time.Time

	mu        sync.Mutex
	announced map[uuid.UUID]struct{}
}

// NewPaymentDueScanner creates a scanner that runs every interval.
func NewPaymentDueScanner(sales PaymentDueFinder, publisher domain.EventPublisher, interval time.Duration) *PaymentDueScanner {
	return &PaymentDueScanner{
		sales:     sales,
		publisher: publisher,
		interval:  interval,
		batchSize: DefaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
		announced: make(map[uuid.UUID]struct{}),
	}
}

// Start scans immediately, then on every tick until ctx is cancelled.
func (s *PaymentDueScanner) Start(ctx context.Context) {
	log := logger.Component("payment-due-scanner")
	log.Info().Dur("interval", s.interval).Msg("Starting payment due scanner")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if n, err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Payment due scan failed")
		} else if n > 0 {
			log.Info().Int("announced", n).Msg("Payment due sales announced")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Payment due scanner stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce publishes an event for every due sale not yet announced and returns
// how many were published. A sale whose publish fails is retried next run.
func (s *PaymentDueScanner) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	due, err := s.sales.PaymentDue(ctx, today, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list payment due sales: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	published := 0
	for i := range due {
		sale := &due[i]
		if _, seen := s.announced[sale.ID]; seen {
			continue
		}

		ev := domain.SaleEvent(domain.EventSalePaymentDue, sale)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			metrics.EventsPublished.WithLabelValues(ev.Type, metrics.ResultError).Inc()
			logger.Warn(ctx).Err(err).Str("sale_id", sale.ID.String()).Msg("Failed to publish payment due event")
			continue
		}
		metrics.EventsPublished.WithLabelValues(ev.Type, metrics.ResultOK).Inc()
		s.announced[sale.ID] = struct{}{}
		published++
	}
	return published, nil
}
