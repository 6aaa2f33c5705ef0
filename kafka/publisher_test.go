package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

func header(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishKeysByAggregate(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewPublisherWithProducer(producer, "")

	sale := &domain.Sale{ID: uuid.New(), SaleNumber: "SALE-20260101-ABCDEF", TotalAmount: decimal.NewFromInt(24)}
	event := domain.SaleEvent(domain.EventSaleShipped, sale)

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicFulfillmentEvents, msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, sale.ID.String(), string(key))
		assert.Equal(t, domain.EventSaleShipped, header(msg, HeaderEventType))
		assert.Equal(t, event.ID, header(msg, HeaderEventID))

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		env, err := Decode(raw)
		require.NoError(t, err)
		var payload domain.SalePayload
		require.NoError(t, env.DecodePayload(&payload))
		assert.Equal(t, sale.SaleNumber, payload.SaleNumber)
		assert.True(t, payload.TotalAmount.Equal(decimal.NewFromInt(24)))
		return nil
	})

	require.NoError(t, pub.Publish(context.Background(), event))
	require.NoError(t, pub.Close())
}

func TestPublishAttemptsEveryEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewPublisherWithProducer(producer, "events")

	boom := errors.New("broker unavailable")
	producer.ExpectSendMessageAndFail(boom)
	producer.ExpectSendMessageAndSucceed()

	err := pub.Publish(context.Background(),
		domain.NewEvent(domain.EventStockLow, uuid.New(), domain.StockLevelPayload{SKU: "A"}),
		domain.NewEvent(domain.EventStockReorder, uuid.New(), domain.StockLevelPayload{SKU: "A"}),
	)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, pub.Close())
}

func TestLoggingPublisher(t *testing.T) {
	err := NewLoggingPublisher().Publish(context.Background(),
		domain.NewEvent(domain.EventTransferCompleted, uuid.New(), domain.TransferPayload{TransferNumber: "TR-1"}))
	assert.NoError(t, err)
}
