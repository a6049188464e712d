package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types published on the booking events topic.
const (
	EventBookingConfirmed      = "booking_confirmed"
	EventPaymentPartialFailure = "payment_partial_failure"
)

// BookingEvent describes the outcome of one booking attempt. A
// payment_partial_failure event always carries the processor's
// PaymentReference so support can trace the captured charge.
type BookingEvent struct {
	Type             string    `json:"type"`
	SessionID        string    `json:"session_id"`
	BookingReference string    `json:"booking_reference,omitempty"`
	GuestName        string    `json:"guest_name"`
	Email            string    `json:"email"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	At               time.Time `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
