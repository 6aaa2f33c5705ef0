package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

func message(t *testing.T, e domain.Event) *sarama.ConsumerMessage {
	t.Helper()
	value, err := Encode(e)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{
		Topic: TopicFulfillmentEvents,
		Value: value,
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(e.Type)},
			{Key: []byte(HeaderEventID), Value: []byte(e.ID)},
		},
	}
}

func TestDispatchRoutesByEventType(t *testing.T) {
	c := NewConsumerWithGroup(nil, "test", []string{TopicFulfillmentEvents})

	var got []Envelope
	c.RegisterHandler(domain.EventStockLow, func(_ context.Context, e Envelope) error {
		got = append(got, e)
		return nil
	})

	productID := uuid.New()
	event := domain.NewEvent(domain.EventStockLow, productID, domain.StockLevelPayload{ProductID: productID, SKU: "WIDGET"})
	require.NoError(t, c.Dispatch(context.Background(), message(t, event)))

	require.Len(t, got, 1)
	assert.Equal(t, event.ID, got[0].EventID)
	assert.Equal(t, productID, got[0].AggregateID)

	var payload domain.StockLevelPayload
	require.NoError(t, got[0].DecodePayload(&payload))
	assert.Equal(t, "WIDGET", payload.SKU)
}

func TestDispatchFallbackAndErrors(t *testing.T) {
	c := NewConsumerWithGroup(nil, "test", nil)
	event := domain.NewEvent(domain.EventSaleCancelled, uuid.New(), domain.SalePayload{})

	assert.NoError(t, c.Dispatch(context.Background(), message(t, event)), "unhandled types are skipped")

	boom := errors.New("sink down")
	c.RegisterFallback(func(context.Context, Envelope) error { return boom })
	assert.ErrorIs(t, c.Dispatch(context.Background(), message(t, event)), boom)

	assert.Error(t, c.Dispatch(context.Background(), &sarama.ConsumerMessage{Value: []byte("{}")}))

	broken := message(t, event)
	broken.Value = []byte("not json")
	assert.Error(t, c.Dispatch(context.Background(), broken))
}
