package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nadlan-parser/internal/core/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitMQRequestQueueAdapter реализует RequestQueuePort: ставит запрос
// на получение сделок в очередь воркеров.
type RabbitMQRequestQueueAdapter struct {
	producer   Publisher
	routingKey string
	log        zerolog.Logger
}

// NewRabbitMQRequestQueueAdapter создает новый экземпляр.
func NewRabbitMQRequestQueueAdapter(producer Publisher, routingKey string, log zerolog.Logger) (*RabbitMQRequestQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RabbitMQRequestQueueAdapter{
		producer:   producer,
		routingKey: routingKey,
		log:        log.With().Str("component", "request_queue").Str("routing_key", routingKey).Logger(),
	}, nil
}

// Enqueue публикует запрос с requestID в качестве CorrelationId.
func (a *RabbitMQRequestQueueAdapter) Enqueue(ctx context.Context, requestID string, req domain.AcquisitionRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal request %s: %w", requestID, err)
	}

	msg := amqp.Publishing{
		ContentType:   contentTypeJSON,
		AppId:         appID,
		CorrelationId: requestID,
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to publish request %s: %w", requestID, err)
	}
	a.log.Info().Str("request_id", requestID).Str("city", req.City).Msg("Request enqueued")
	return nil
}
