package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/config"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Handler processes one decoded event. Errors are logged; the handler is
// responsible for parking the event for retry.
type Handler func(ctx context.Context, event ActivityEvent) error

// NewKafkaReader joins the activity consumer group.
func NewKafkaReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.ActivityTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
}

type Consumer struct {
	reader      MessageReader
	handler     Handler
	pollTimeout time.Duration
	errorPause  time.Duration
}

func NewConsumer(reader MessageReader, handler Handler) *Consumer {
	return &Consumer{
		reader:      reader,
		handler:     handler,
		pollTimeout: 10 * time.Second,
		errorPause:  time.Second,
	}
}

// Run reads events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	logrus.Info("Starting activity events consumer...")

	for {
		if ctx.Err() != nil {
			return nil
		}

		readCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
		msg, err := c.reader.ReadMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// no messages within the poll window
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logrus.WithError(err).Error("Error reading activity message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.errorPause):
			}
			continue
		}

		event, err := Decode(msg)
		if err != nil {
			logrus.WithError(err).WithField("offset", msg.Offset).Warn("Skipping undecodable activity message")
			continue
		}

		if err := c.handler(ctx, event); err != nil {
			logrus.WithError(err).WithField("event_id", event.ID).Error("Error handling activity event")
		}
	}
}

// Decode parses a Kafka message into an activity event.
func Decode(msg kafka.Message) (ActivityEvent, error) {
	var event ActivityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("failed to unmarshal activity event: %w", err)
	}
	if event.ID == "" || event.UserID == "" {
		return ActivityEvent{}, fmt.Errorf("activity event missing id or user")
	}
	return event, nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close activity reader: %w", err)
	}
	return nil
}
