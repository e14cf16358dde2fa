package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer builds a producer whose writer routes each message to the
// topic named on the message.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// TopicFor returns the topic a booking event type is published to.
func (p *Producer) TopicFor(eventType string) (string, error) {
	switch eventType {
	case models.EventBookingCreated:
		return p.Topics.BookingCreated, nil
	case models.EventBookingConfirmed:
		return p.Topics.BookingConfirmed, nil
	case models.EventBookingCancelled:
		return p.Topics.BookingCancelled, nil
	}
	return "", fmt.Errorf("no topic for event type %q", eventType)
}

// PublishBookingEvent streams a booking state change keyed by booking id
func (p *Producer) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	topic, err := p.TopicFor(event.Type)
	if err != nil {
		return err
	}
	return p.publish(ctx, topic, event.BookingID, event)
}

// PublishSeatStatus streams a seat state change keyed by schedule id
func (p *Producer) PublishSeatStatus(ctx context.Context, event models.SeatStatusEvent) error {
	return p.publish(ctx, p.Topics.SeatStatus, event.ScheduleID, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload any) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("write %s message: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s bytes=%d", key, len(msgBytes)))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher drops every event. It stands in when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(context.Context, models.BookingEvent) error { return nil }

func (NoopPublisher) PublishSeatStatus(context.Context, models.SeatStatusEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
