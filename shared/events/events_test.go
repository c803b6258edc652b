package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/models"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type fakeReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

var at = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testConfig() config.KafkaConfig {
	return config.KafkaConfig{ActivityTopic: "rental-activities", Workers: 2, BufferSize: 10}
}

func TestProducerFlushesQueueOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer(w, testConfig())

	for i := 0; i < 5; i++ {
		ev := NewActivityEvent("T1", models.ActivityCreated, models.KindMaintenance, "M1", "opened request", at)
		require.NoError(t, p.Publish(ev))
	}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, w.closed)
	require.Len(t, w.msgs, 5)
	msg := w.msgs[0]
	assert.Equal(t, "rental-activities", msg.Topic)
	assert.Equal(t, []byte("T1"), msg.Key)

	var decoded ActivityEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, models.KindMaintenance, decoded.EntityType)
	assert.Equal(t, EventTypeActivity, decoded.EventType)

	err := p.Publish(NewActivityEvent("T1", models.ActivityCreated, "", "", "", at))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestProducerDropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	w := &blockingWriter{release: block}
	p := NewProducer(w, config.KafkaConfig{ActivityTopic: "t", Workers: 1, BufferSize: 1})

	var full bool
	for i := 0; i < 10; i++ {
		if err := p.Publish(NewActivityEvent("L1", models.ActivityUpdated, "", "", "", at)); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	close(block)
	require.NoError(t, p.Close())
	assert.True(t, full)
}

type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	<-w.release
	return nil
}

func (w *blockingWriter) Close() error { return nil }

func TestConsumerHandlesEventsAndSkipsGarbage(t *testing.T) {
	good := NewActivityEvent("L1", models.ActivityStatusChanged, models.KindLease, "Lse1", "lease activated", at)
	value, err := json.Marshal(good)
	require.NoError(t, err)

	r := &fakeReader{msgs: []kafka.Message{
		{Value: []byte("not json")},
		{Value: []byte(`{"id":"","user_id":""}`)},
		{Value: value},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []ActivityEvent
	c := NewConsumer(r, func(ctx context.Context, ev ActivityEvent) error {
		got = append(got, ev)
		cancel()
		return errors.New("handler errors are logged")
	})
	c.pollTimeout = 50 * time.Millisecond

	require.NoError(t, c.Run(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, good.ID, got[0].ID)
	assert.True(t, good.Timestamp.Equal(got[0].Timestamp))
}

func TestConsumerKeepsPollingOnTimeout(t *testing.T) {
	r := &fakeReader{}
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	c := NewConsumer(r, func(context.Context, ActivityEvent) error { return nil })
	c.pollTimeout = 20 * time.Millisecond
	assert.NoError(t, c.Run(ctx))
}

func TestEventConversions(t *testing.T) {
	ev := NewActivityEvent("T1", models.ActivityCommented, models.KindMaintenance, "M1", "added a comment", at)
	act := ev.Activity()
	assert.Equal(t, ev.ID, act.ID)
	assert.Equal(t, at, act.CreatedAt)

	next := at.Add(time.Minute)
	failed := ev.Failed(errors.New("db down"), next)
	assert.Equal(t, ev.ID, failed.OriginalEventID)
	assert.Equal(t, "db down", failed.ErrorMessage)
	assert.Equal(t, models.RetryPending, failed.Status)
	assert.Equal(t, act, failed.Activity())
}
