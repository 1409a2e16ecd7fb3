package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher emits auth events to RabbitMQ. Publishing is best effort: every
// error is logged and returned, and callers ignore failures so a broker
// outage never blocks an auth request.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns a Publisher, or nil when no broker URL is configured.
// A nil Publisher is safe to call and publishes nothing.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, log: log}
}

// Publish declares the queue (idempotent) and sends one persistent JSON
// message. A fresh connection per publish keeps the publisher stateless;
// auth events are low volume.
func (p *Publisher) Publish(ctx context.Context, queue string, event any) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}
