package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher pushes ledger lifecycle events to RabbitMQ so downstream
// consumers (analytics, the agency CRM) can react without querying the
// primary database. Publication is best effort: callers log and continue
// on failure.
type EventPublisher struct {
	url      string
	exchange string
}

// NewEventPublisher returns a publisher for the given AMQP URL. Returns
// nil when url is empty, which disables event publication.
func NewEventPublisher(url string) *EventPublisher {
	if url == "" {
		return nil
	}
	return &EventPublisher{url: url}
}

// Publish declares a durable queue named after the routing key and sends
// the payload as a persistent JSON message. A fresh connection per publish
// keeps the publisher stateless; volume here is one message per ledger
// transition.
func (p *EventPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
