// Package events publishes reservation lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ReservationCreated           = "reservation.created"
	ReservationUpdated           = "reservation.updated"
	ReservationResourcesAssigned = "reservation.resources_assigned"
	ReservationStatusChanged     = "reservation.status_changed"
	ReservationDeleted           = "reservation.deleted"
	PassengerAdded               = "reservation.passenger_added"
	PassengerRemoved             = "reservation.passenger_removed"
)

// ReservationEvent carries enough state for consumers to react without
// reading the reservation back.
type ReservationEvent struct {
	Type           string    `json:"type"`
	ReservationID  string    `json:"reservation_id"`
	Status         string    `json:"status,omitempty"`
	ServiceDay     string    `json:"service_day,omitempty"`
	VehicleID      *string   `json:"vehicle_id,omitempty"`
	DriverID       *string   `json:"driver_id,omitempty"`
	PassengerID    string    `json:"passenger_id,omitempty"`
	PassengerCount int       `json:"passenger_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher sends events to a durable topic exchange, routed by event type.
type Publisher struct {
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.Mutex
	log      *zap.SugaredLogger
}

func NewPublisher(url, exchange string, log *zap.SugaredLogger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &Publisher{exchange: exchange, conn: conn, ch: ch, log: log}, nil
}

func (p *Publisher) PublishReservationEvent(ctx context.Context, e ReservationEvent) error {
	msg, err := encodeEvent(e)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", e.Type, err)
	}
	p.log.Debugw("event published", "type", e.Type, "reservation_id", e.ReservationID)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func encodeEvent(e ReservationEvent) (amqp.Publishing, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         e.Type,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}, nil
}
