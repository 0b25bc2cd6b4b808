package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nadlan-parser/internal/core/domain"
	"nadlan-parser/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RequestProcessor - use case, который выполняет запрос из очереди.
type RequestProcessor interface {
	Execute(ctx context.Context, requestID string, criteria domain.SearchCriteria) error
}

// RequestConsumerAdapter - входящий адаптер: слушает очередь запросов
// и передает их в use case.
type RequestConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  RequestProcessor
	now      func() time.Time
	log      zerolog.Logger
}

// NewRequestConsumerAdapter создает адаптер и подключает consumer.
func NewRequestConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase RequestProcessor,
	log zerolog.Logger,
) (*RequestConsumerAdapter, error) {
	adapter := newRequestHandler(useCase, log)

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, adapter.messageHandler, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for acquisition requests: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

func newRequestHandler(useCase RequestProcessor, log zerolog.Logger) *RequestConsumerAdapter {
	return &RequestConsumerAdapter{
		useCase: useCase,
		now:     time.Now,
		log:     log.With().Str("component", "request_consumer").Logger(),
	}
}

// messageHandler: неразборчивое сообщение отклоняется без повтора,
// сбой use case повторяется один раз (пока сообщение не помечено Redelivered).
// Прерывание при остановке всегда возвращает сообщение в очередь.
func (a *RequestConsumerAdapter) messageHandler(ctx context.Context, d amqp.Delivery) (ack bool, requeueOnError bool, err error) {
	requestID := d.CorrelationId
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := a.log.With().Str("request_id", requestID).Uint64("delivery_tag", d.DeliveryTag).Logger()

	var req domain.AcquisitionRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		log.Warn().Err(err).Msg("Malformed request body")
		return false, false, fmt.Errorf("unmarshal error: %w", err)
	}
	criteria, err := req.ToCriteria(a.now())
	if err != nil {
		log.Warn().Err(err).Msg("Request rejected")
		return false, false, err
	}

	if err := a.useCase.Execute(ctx, requestID, criteria); err != nil {
		if errors.Is(err, context.Canceled) {
			// Остановка воркера: возвращаем сообщение в очередь другим потребителям.
			return false, true, err
		}
		if d.Redelivered {
			log.Error().Err(err).Bool("redelivered", d.Redelivered).Msg("Use case failed, discarding message")
			return false, false, err
		}
		log.Warn().Err(err).Msg("Use case failed, requeueing")
		return false, true, err
	}
	return true, false, nil
}

// Start реализует EventListenerPort
func (a *RequestConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close реализует EventListenerPort
func (a *RequestConsumerAdapter) Close() error {
	return a.consumer.Close()
}
