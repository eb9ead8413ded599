// Package events publishes booking lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

// BookingEvent is emitted after a lifecycle transition commits.
type BookingEvent struct {
	Type       string               `json:"type"`
	BookingID  domain.ID            `json:"bookingId,string"`
	UserID     domain.ID            `json:"userId,string"`
	GuideID    domain.ID            `json:"guideId,string"`
	Status     models.BookingStatus `json:"status"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// RoutingKey is the topic the event is published under, e.g. booking.accept.
func (e BookingEvent) RoutingKey() string {
	return "booking." + e.Type
}

type Publisher interface {
	Publish(ctx context.Context, e BookingEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, BookingEvent) error { return nil }

// AMQPPublisher sends events as JSON to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e BookingEvent) error {
	body, err := Encode(e)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, e.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Type:         e.RoutingKey(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func Encode(e BookingEvent) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode booking event: %w", err)
	}
	return b, nil
}
