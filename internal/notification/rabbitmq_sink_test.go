package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func TestRabbitSink_Publish(t *testing.T) {
	ch := &fakeChannel{}
	sink := &RabbitSink{channel: ch}

	err := sink.Publish(context.Background(), Event{Type: EventOrderStatus, OrderID: 42, Status: "SERVED"})
	require.NoError(t, err)

	assert.Equal(t, notificationsExchange, ch.exchange)
	assert.Equal(t, "ORDER_STATUS", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var decoded Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, int64(42), decoded.OrderID)
	assert.Equal(t, "SERVED", decoded.Status)

	assert.NoError(t, sink.Close())
}

func TestRabbitSink_PublishError(t *testing.T) {
	sink := &RabbitSink{channel: &fakeChannel{err: errors.New("channel closed")}}

	err := sink.Publish(context.Background(), Event{Type: EventBookingConfirmed, BookingID: 1})
	assert.ErrorContains(t, err, "failed to publish event")
}
