package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"rentals-service/internal/constants"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/contracts"
	"rentals-service/internal/core/port"
)

const publishTimeout = 10 * time.Second

// amqpPublisher - часть rabbitmq_producer.Publisher, нужная адаптеру.
type amqpPublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
	Close() error
}

// eventSchemas связывает ключ маршрутизации с контрактом события.
var eventSchemas = map[string]string{
	constants.RoutingKeyListingCreated: contracts.ListingCreatedEventV1,
	constants.RoutingKeyListingDeleted: contracts.ListingDeletedEventV1,
	constants.RoutingKeyUserRegistered: contracts.UserRegisteredEventV1,
	constants.RoutingKeyUserDeleted:    contracts.UserDeletedEventV1,
}

// EventsPublisher - EventPublisherPort поверх RabbitMQ.
// Тело сообщения проверяется по JSON-схеме события до отправки.
type EventsPublisher struct {
	producer amqpPublisher
	appID    string
}

func NewEventsPublisher(producer amqpPublisher, appID string) (*EventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &EventsPublisher{producer: producer, appID: appID}, nil
}

func (p *EventsPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "EventsPublisher",
		"routing_key": routingKey,
	})

	schemaKey, ok := eventSchemas[routingKey]
	if !ok {
		return fmt.Errorf("rabbitmq adapter: no contract for routing key %q", routingKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal event: %w", err)
	}
	if err := contracts.Validate(schemaKey, body); err != nil {
		adapterLogger.Error("Event does not match its contract", err, nil)
		return fmt.Errorf("rabbitmq adapter: event %s violates contract: %w", schemaKey, err)
	}

	eventType, version, _ := strings.Cut(schemaKey, "/")
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    uuid.NewString(),
		AppId:        p.appID,
		Type:         eventType,
		Headers: amqp.Table{
			constants.HeaderEventType:    eventType,
			constants.HeaderEventVersion: version,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers[constants.HeaderTraceID] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish event", err, nil)
		return err
	}
	adapterLogger.Debug("Event published", port.Fields{"message_id": msg.MessageId})
	return nil
}

func (p *EventsPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher используется, когда события выключены конфигурацией.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
