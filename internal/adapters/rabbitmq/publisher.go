package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher - то, что адаптерам очередей нужно от rabbitmq_producer.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

const (
	contentTypeJSON = "application/json"
	appID           = "nadlan-parser"
)
