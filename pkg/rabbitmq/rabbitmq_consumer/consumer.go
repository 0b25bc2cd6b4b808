package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"

	"nadlan-parser/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// MessageHandler функция-обработчик для полученных сообщений.
// ctx отменяется при остановке потребителя.
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) (ack bool, requeueOnError bool, err error)

// ConsumerConfig конфигурация для потребителя
type ConsumerConfig struct {
	rabbitmq_common.Config
	// Настройки очереди
	QueueName       string // Имя очереди (если пусто, имя будет сгенерировано сервером)
	DeclareQueue    bool
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table // например, x-message-ttl, x-dead-letter-exchange

	// Обменник для привязки (если пусто, привязка не выполняется)
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	ExchangeArgsForBind    amqp.Table

	RoutingKeyForBind string
	BindingArgs       amqp.Table

	// QoS
	PrefetchCount int // 0 или меньше - без ограничений
	PrefetchSize  int
	QosGlobal     bool

	ConsumerTag       string
	ExclusiveConsumer bool
}

// Consumer структура для управления потребителем
type Consumer struct {
	config     ConsumerConfig
	handler    MessageHandler
	connection *amqp.Connection
	channel    *amqp.Channel
	// актуальное имя очереди, если оно сгенерировано сервером
	actualQueueName string

	log zerolog.Logger
	wg  sync.WaitGroup
}

// NewConsumer проверяет конфигурацию, подключается и настраивает очередь.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, log zerolog.Logger) (*Consumer, error) {
	c, err := newConsumer(cfg, handler, log)
	if err != nil {
		return nil, err
	}
	if err := c.connectAndSetup(); err != nil {
		return nil, fmt.Errorf("consumer: initial connection and setup failed: %w", err)
	}
	return c, nil
}

func newConsumer(cfg ConsumerConfig, handler MessageHandler, log zerolog.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return nil, fmt.Errorf("consumer: queue name is required if DeclareQueue is false")
	}
	if cfg.ExchangeNameForBind != "" && cfg.ExchangeTypeForBind == "" && cfg.DeclareExchangeForBind {
		return nil, fmt.Errorf("consumer: exchange type is required if declaring an exchange for binding")
	}
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}
	return &Consumer{
		config:  cfg,
		handler: handler,
		log:     log.With().Str("component", "rabbitmq_consumer").Str("queue", cfg.QueueName).Logger(),
	}, nil
}

// connectAndSetup устанавливает соединение, канал и настраивает сущности RabbitMQ
func (c *Consumer) connectAndSetup() error {
	c.log.Info().Str("url", c.config.RedactedURL()).Msg("Connecting to RabbitMQ")
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	c.connection, c.channel = conn, ch

	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	// QoS должен быть настроен до Consume
	if c.config.PrefetchCount > 0 || c.config.PrefetchSize > 0 {
		if err := ch.Qos(c.config.PrefetchCount, c.config.PrefetchSize, c.config.QosGlobal); err != nil {
			return fail(fmt.Errorf("failed to set QoS: %w", err))
		}
	}

	c.actualQueueName = c.config.QueueName
	if c.config.DeclareQueue {
		q, err := ch.QueueDeclare(
			c.config.QueueName,
			c.config.DurableQueue,
			c.config.AutoDeleteQueue,
			c.config.ExclusiveQueue,
			false, // no-wait
			c.config.QueueArgs,
		)
		if err != nil {
			return fail(fmt.Errorf("failed to declare queue '%s': %w", c.config.QueueName, err))
		}
		c.actualQueueName = q.Name
	}

	if c.config.DeclareExchangeForBind {
		err := ch.ExchangeDeclare(
			c.config.ExchangeNameForBind,
			c.config.ExchangeTypeForBind,
			c.config.DurableExchangeForBind,
			false, // auto-deleted
			false, // internal
			false, // no-wait
			c.config.ExchangeArgsForBind,
		)
		if err != nil {
			return fail(fmt.Errorf("failed to declare exchange '%s' for binding: %w", c.config.ExchangeNameForBind, err))
		}
	}

	if c.config.ExchangeNameForBind != "" {
		err := ch.QueueBind(c.actualQueueName, c.config.RoutingKeyForBind, c.config.ExchangeNameForBind, false, c.config.BindingArgs)
		if err != nil {
			return fail(fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.actualQueueName, c.config.ExchangeNameForBind, err))
		}
	}

	c.log.Info().
		Str("actual_queue", c.actualQueueName).
		Str("exchange", c.config.ExchangeNameForBind).
		Str("routing_key", c.config.RoutingKeyForBind).
		Int("prefetch", c.config.PrefetchCount).
		Msg("Consumer setup complete")
	return nil
}

// StartConsuming блокируется до отмены ctx (штатный выход, nil) или закрытия соединения (ошибка).
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.connection == nil || c.connection.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}

	msgs, err := c.channel.Consume(
		c.actualQueueName,
		c.config.ConsumerTag,
		false, // auto-ack
		c.config.ExclusiveConsumer,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer: failed to register a consumer on queue '%s': %w", c.actualQueueName, err)
	}
	c.log.Info().Msg("Waiting for messages")

	go func() {
		for {
			// Сначала неблокирующая проверка: после отмены новых обработчиков не запускаем.
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					c.log.Warn().Msg("Deliveries channel closed by broker")
					return
				}
				c.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer c.wg.Done()
					c.dispatch(ctx, delivery)
				}(d)
			}
		}
	}()

	notifyClose := c.connection.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		c.log.Info().Msg("Context cancelled, stopping consumer")
		return nil
	case amqpErr := <-notifyClose:
		c.log.Error().Err(amqpErr).Msg("Connection closed")
		if amqpErr == nil {
			return fmt.Errorf("consumer: connection closed")
		}
		return amqpErr
	}
}

// dispatch вызывает обработчик и подтверждает или отклоняет сообщение по его ответу.
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	log := c.log.With().Uint64("delivery_tag", d.DeliveryTag).Str("correlation_id", d.CorrelationId).Logger()
	log.Debug().Msg("Processing message")

	ack, requeue, err := c.handler(ctx, d)
	switch {
	case err != nil:
		log.Error().Err(err).Bool("requeue", requeue).Msg("Message processing failed")
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error().Err(nackErr).Msg("Nack failed")
		}
	case ack:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Msg("Ack failed")
		}
	default:
		log.Warn().Msg("Message rejected by handler")
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Msg("Nack failed")
		}
	}
}

// Close дожидается обработчиков и закрывает канал и соединение.
func (c *Consumer) Close() error {
	c.log.Info().Msg("Waiting for message handlers to finish")
	c.wg.Wait()

	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			firstErr = err
		}
		c.channel = nil
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.connection = nil
	}
	c.log.Info().Msg("Consumer closed")
	return firstErr
}
