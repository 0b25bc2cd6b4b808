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

// RabbitMQResultQueueAdapter реализует ResultQueuePort: публикует готовый результат.
type RabbitMQResultQueueAdapter struct {
	producer       Publisher
	routingKey     string
	publishTimeout time.Duration
	log            zerolog.Logger
}

// NewRabbitMQResultQueueAdapter создает новый экземпляр
func NewRabbitMQResultQueueAdapter(producer Publisher, routingKey string, log zerolog.Logger) (*RabbitMQResultQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("routingKey cannot be empty")
	}
	return &RabbitMQResultQueueAdapter{
		producer:       producer,
		routingKey:     routingKey,
		publishTimeout: 10 * time.Second,
		log:            log.With().Str("component", "result_queue").Str("routing_key", routingKey).Logger(),
	}, nil
}

// Enqueue публикует результат; RequestID уходит в CorrelationId.
func (a *RabbitMQResultQueueAdapter) Enqueue(ctx context.Context, result domain.AcquisitionResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal acquisition result %s: %w", result.RequestID, err)
	}

	msg := amqp.Publishing{
		ContentType:   contentTypeJSON,
		AppId:         appID,
		CorrelationId: result.RequestID,
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, a.publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		return fmt.Errorf("failed to publish acquisition result %s: %w", result.RequestID, err)
	}
	a.log.Debug().Str("request_id", result.RequestID).Int("records", len(result.Records)).Msg("Result published")
	return nil
}
