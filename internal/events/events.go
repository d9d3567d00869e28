// Package events publishes confirmed reservations to a durable RabbitMQ queue.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName receives one message per confirmed reservation.
const DefaultQueueName = "reservation.confirmed"

const contentTypeJSON = "application/json"

var errNilChannel = errors.New("events: channel is nil")

// ReservationConfirmedEvent is the message body published for a new reservation.
type ReservationConfirmedEvent struct {
	ReservationID string    `json:"reservation_id"`
	VenueID       int       `json:"venue_id"`
	VenueName     string    `json:"venue_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Pax           int       `json:"pax"`
	ContactName   string    `json:"contact_name"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// NewReservationConfirmedEvent maps a committed reservation onto the wire event.
func NewReservationConfirmedEvent(reservation booking.Reservation) ReservationConfirmedEvent {
	return ReservationConfirmedEvent{
		ReservationID: reservation.ID,
		VenueID:       reservation.VenueID.Int(),
		VenueName:     reservation.VenueName,
		Date:          reservation.Date.String(),
		Time:          reservation.Time.String(),
		Pax:           reservation.Pax.Int(),
		ContactName:   reservation.Name.String(),
		ConfirmedAt:   reservation.Timestamp,
	}
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements booking.ReservationPublisher over an AMQP channel.
type Publisher struct {
	connection *amqp.Connection
	channel    channel
	queue      string
}

// Dial opens a connection and channel, then declares the durable queue.
func Dial(url string, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial broker: %w", err)
	}
	amqpChannel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	if _, err := amqpChannel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = amqpChannel.Close()
		_ = connection.Close()
		return nil, fmt.Errorf("events: declare queue %s: %w", queue, err)
	}
	return &Publisher{connection: connection, channel: amqpChannel, queue: queue}, nil
}

func newPublisher(amqpChannel channel, queue string) *Publisher {
	return &Publisher{channel: amqpChannel, queue: queue}
}

// PublishReservationConfirmed sends a persistent JSON message to the queue.
func (publisher *Publisher) PublishReservationConfirmed(ctx context.Context, reservation booking.Reservation) error {
	if publisher == nil || publisher.channel == nil {
		return errNilChannel
	}
	body, err := json.Marshal(NewReservationConfirmedEvent(reservation))
	if err != nil {
		return fmt.Errorf("events: encode reservation %s: %w", reservation.ID, err)
	}
	message := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    reservation.ID,
		Timestamp:    reservation.Timestamp,
		Body:         body,
	}
	if err := publisher.channel.PublishWithContext(ctx, "", publisher.queue, false, false, message); err != nil {
		return fmt.Errorf("events: publish reservation %s: %w", reservation.ID, err)
	}
	return nil
}

// Close releases the channel and the connection.
func (publisher *Publisher) Close() error {
	var closeErr error
	if publisher.channel != nil {
		closeErr = publisher.channel.Close()
	}
	if publisher.connection != nil {
		closeErr = errors.Join(closeErr, publisher.connection.Close())
	}
	return closeErr
}
