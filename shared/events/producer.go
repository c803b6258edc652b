package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/config"
)

// ErrQueueFull is returned by Publish when the event buffer is full
var ErrQueueFull = errors.New("activity event queue full, event dropped")

// Publisher accepts activity events for asynchronous delivery.
type Publisher interface {
	Publish(event ActivityEvent) error
}

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a batched writer for the configured brokers.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// Producer publishes activity events to Kafka from a pool of workers
// reading a buffered channel.
type Producer struct {
	writer       MessageWriter
	topic        string
	eventChan    chan ActivityEvent
	workerCount  int
	writeTimeout time.Duration
	shutdownChan chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

// NewProducer starts the worker pool.
func NewProducer(writer MessageWriter, cfg config.KafkaConfig) *Producer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1000
	}

	p := &Producer{
		writer:       writer,
		topic:        cfg.ActivityTopic,
		eventChan:    make(chan ActivityEvent, buffer),
		workerCount:  workers,
		writeTimeout: 5 * time.Second,
		shutdownChan: make(chan struct{}),
	}
	p.startWorkers()
	return p
}

func (p *Producer) startWorkers() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logrus.Infof("[Kafka] Started %d activity workers", p.workerCount)
}

func (p *Producer) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case event := <-p.eventChan:
			p.deliver(id, event)
		case <-p.shutdownChan:
			// flush what is already queued
			for {
				select {
				case event := <-p.eventChan:
					p.deliver(id, event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) deliver(worker int, event ActivityEvent) {
	if err := p.send(event); err != nil {
		logrus.WithFields(logrus.Fields{
			"worker":   worker,
			"event_id": event.ID,
		}).WithError(err).Error("Failed to send activity event")
	}
}

// Publish queues an event without blocking.
func (p *Producer) Publish(event ActivityEvent) error {
	select {
	case <-p.shutdownChan:
		return fmt.Errorf("producer closed: %w", ErrQueueFull)
	default:
	}
	select {
	case p.eventChan <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Producer) send(event ActivityEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "user_id", Value: []byte(event.UserID)},
			{Key: "entity_type", Value: []byte(event.EntityType)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write activity event to Kafka: %w", err)
	}
	return nil
}

// Close stops the workers after the queue is flushed and closes the writer.
func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		logrus.Info("[Kafka] Initiating graceful shutdown...")
		close(p.shutdownChan)
		p.wg.Wait()

		if cerr := p.writer.Close(); cerr != nil {
			err = fmt.Errorf("failed to close Kafka writer: %w", cerr)
			return
		}
		logrus.Info("[Kafka] Graceful shutdown complete")
	})
	return err
}
