package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/constants"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
)

type fakeProducer struct {
	keys     []string
	messages []amqp.Publishing
	closed   bool
}

func (f *fakeProducer) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	f.keys = append(f.keys, routingKey)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestEventsPublisherPublishesValidatedEvent(t *testing.T) {
	producer := &fakeProducer{}
	publisher, err := NewEventsPublisher(producer, "rentals-service")
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	event := domain.UserDeletedEvent{UserID: "u-1", DeletedBy: "admin-1", DeletedAt: time.Now()}
	require.NoError(t, publisher.Publish(ctx, constants.RoutingKeyUserDeleted, event))

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, constants.RoutingKeyUserDeleted, producer.keys[0])
	assert.Equal(t, "trace-1", msg.Headers[constants.HeaderTraceID])
	assert.Equal(t, "UserDeletedEvent", msg.Headers[constants.HeaderEventType])
	assert.Equal(t, "1.0.0", msg.Headers[constants.HeaderEventVersion])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "u-1", decoded["userId"])

	require.NoError(t, publisher.Close())
	assert.True(t, producer.closed)
}

func TestEventsPublisherRejectsInvalidEvents(t *testing.T) {
	producer := &fakeProducer{}
	publisher, err := NewEventsPublisher(producer, "rentals-service")
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), constants.RoutingKeyUserRegistered, domain.UserRegisteredEvent{UserID: "u-1", Email: "nope", Role: domain.RoleUser, CreatedAt: time.Now()})
	assert.Error(t, err)

	err = publisher.Publish(context.Background(), "unknown.key", struct{}{})
	assert.Error(t, err)
	assert.Empty(t, producer.messages)
}
