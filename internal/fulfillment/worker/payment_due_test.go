package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

type dueSales struct {
	sales []domain.Sale
	asOf  time.Time
	err   error
}

func (d *dueSales) PaymentDue(_ context.Context, asOf time.Time, _ int) ([]domain.Sale, error) {
	d.asOf = asOf
	return d.sales, d.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	fail   map[uuid.UUID]bool
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range events {
		if p.fail[ev.AggregateID] {
			return errors.New("broker unavailable")
		}
		p.events = append(p.events, ev)
	}
	return nil
}

func dueSale() domain.Sale {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return domain.Sale{
		ID:            uuid.New(),
		SaleNumber:    "SO-" + uuid.NewString()[:8],
		Status:        domain.SaleShipped,
		PaymentStatus: domain.PaymentPartial,
		TotalAmount:   decimal.NewFromInt(100),
		PaidAmount:    decimal.NewFromInt(40),
		DueDate:       &due,
	}
}

func TestRunOnceAnnouncesEachSaleOnce(t *testing.T) {
	a, b := dueSale(), dueSale()
	finder := &dueSales{sales: []domain.Sale{a, b}}
	pub := &recordingPublisher{}
	s := NewPaymentDueScanner(finder, pub, time.Hour)
	s.now = func() time.Time { return time.Date(2026, 5, 3, 15, 4, 5, 0, time.UTC) }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), finder.asOf, "due dates compare against today")

	n, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.EventSalePaymentDue, pub.events[0].Type)
	assert.Equal(t, a.ID, pub.events[0].AggregateID)
	payload := pub.events[0].Payload.(domain.SalePayload)
	assert.Equal(t, domain.PaymentPartial, payload.PaymentStatus)
}

func TestRunOnceRetriesFailedPublish(t *testing.T) {
	a := dueSale()
	pub := &recordingPublisher{fail: map[uuid.UUID]bool{a.ID: true}}
	s := NewPaymentDueScanner(&dueSales{sales: []domain.Sale{a}}, pub, time.Hour)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	pub.fail = nil
	n, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunOnceReportsFinderError(t *testing.T) {
	s := NewPaymentDueScanner(&dueSales{err: errors.New("db down")}, &recordingPublisher{}, time.Hour)
	_, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestStartStopsOnCancel(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewPaymentDueScanner(&dueSales{sales: []domain.Sale{dueSale()}}, pub, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.events) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop")
	}
	assert.Len(t, pub.events, 1)
}
