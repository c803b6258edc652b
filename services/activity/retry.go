package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
)

// activityStore is the part of the entity store the activity pipeline uses.
type activityStore interface {
	RecordActivity(ctx context.Context, a *models.Activity) error
	RecordFailedEvent(ctx context.Context, f *models.FailedActivityEvent) error
	DueFailedEvents(ctx context.Context, now time.Time, limit int) ([]models.FailedActivityEvent, error)
	SaveFailedEvent(ctx context.Context, f *models.FailedActivityEvent) error
	RetryCounts(ctx context.Context) (store.RetryCounts, error)
}

// RetryConsumer persists activity events and retries the ones that failed
type RetryConsumer struct {
	store         activityStore
	now           func() time.Time
	maxRetries    int
	batchSize     int
	checkInterval time.Duration
	baseDelay     time.Duration
}

func NewRetryConsumer(st activityStore, cfg config.RetryConfig) *RetryConsumer {
	rc := &RetryConsumer{
		store:         st,
		now:           time.Now,
		maxRetries:    cfg.MaxRetries,
		batchSize:     cfg.BatchSize,
		checkInterval: cfg.CheckInterval,
		baseDelay:     cfg.BaseDelay,
	}
	if rc.maxRetries <= 0 {
		rc.maxRetries = 8
	}
	if rc.batchSize <= 0 {
		rc.batchSize = 100
	}
	if rc.checkInterval <= 0 {
		rc.checkInterval = 30 * time.Second
	}
	if rc.baseDelay <= 0 {
		rc.baseDelay = time.Minute
	}
	return rc
}

// HandleEvent persists one consumed event. A failed persist parks the event
// for retry instead of failing the consumer.
func (rc *RetryConsumer) HandleEvent(ctx context.Context, event events.ActivityEvent) error {
	activity := event.Activity()
	err := rc.store.RecordActivity(ctx, &activity)
	if err == nil {
		return nil
	}

	logrus.WithError(err).WithField("event_id", event.ID).Warn("Activity not persisted, scheduling retry")
	failed := event.Failed(err, rc.now().Add(rc.backoff(1)))
	if dlqErr := rc.store.RecordFailedEvent(ctx, &failed); dlqErr != nil {
		return fmt.Errorf("failed to store failed event %s: %w", event.ID, dlqErr)
	}
	return nil
}

// backoff is the wait before attempt n: 1m, 2m, 4m, 8m...
func (rc *RetryConsumer) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return rc.baseDelay * time.Duration(1<<(attempt-1))
}

// Run processes due retries every checkInterval until ctx is cancelled.
func (rc *RetryConsumer) Run(ctx context.Context) {
	logrus.Info("Starting retry consumer...")

	ticker := time.NewTicker(rc.checkInterval)
	defer ticker.Stop()

	for {
		if _, err := rc.ProcessFailedEvents(ctx); err != nil {
			logrus.WithError(err).Error("Error fetching failed events")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessFailedEvents retries one batch of due events and returns how many
// it attempted.
func (rc *RetryConsumer) ProcessFailedEvents(ctx context.Context) (int, error) {
	due, err := rc.store.DueFailedEvents(ctx, rc.now(), rc.batchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		logrus.Debug("No failed events to retry")
		return 0, nil
	}

	logrus.Infof("Processing %d failed events for retry", len(due))
	for i := range due {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		if err := rc.retryFailedEvent(ctx, &due[i]); err != nil {
			logrus.WithError(err).WithField("id", due[i].ID).Error("Failed to update retry record")
		}
	}
	return len(due), nil
}

func (rc *RetryConsumer) retryFailedEvent(ctx context.Context, failed *models.FailedActivityEvent) error {
	activity := failed.Activity()
	if err := rc.store.RecordActivity(ctx, &activity); err != nil {
		return rc.updateRetryStatus(ctx, failed, err)
	}
	return rc.markResolved(ctx, failed)
}

func (rc *RetryConsumer) updateRetryStatus(ctx context.Context, failed *models.FailedActivityEvent, cause error) error {
	now := rc.now()
	failed.RetryCount++

	if failed.RetryCount >= rc.maxRetries {
		failed.Status = models.RetryPermanentlyFailed
		failed.ResolvedAt = &now
		failed.NextRetryAt = nil
		failed.ErrorMessage = fmt.Sprintf("Max retries reached: %s", cause.Error())
	} else {
		next := now.Add(rc.backoff(failed.RetryCount))
		failed.NextRetryAt = &next
		failed.ErrorMessage = cause.Error()
	}
	return rc.store.SaveFailedEvent(ctx, failed)
}

func (rc *RetryConsumer) markResolved(ctx context.Context, failed *models.FailedActivityEvent) error {
	now := rc.now()
	failed.Status = models.RetryResolved
	failed.ResolvedAt = &now
	failed.NextRetryAt = nil
	return rc.store.SaveFailedEvent(ctx, failed)
}

// RetryStats is the payload of the /stats endpoint
type RetryStats struct {
	RetryStats store.RetryCounts `json:"retry_stats"`
	Config     RetryStatsConfig  `json:"config"`
}

type RetryStatsConfig struct {
	MaxRetries    int    `json:"max_retries"`
	BatchSize     int    `json:"batch_size"`
	CheckInterval string `json:"check_interval"`
}

func (rc *RetryConsumer) GetRetryStats(ctx context.Context) (RetryStats, error) {
	counts, err := rc.store.RetryCounts(ctx)
	if err != nil {
		return RetryStats{}, err
	}
	return RetryStats{
		RetryStats: counts,
		Config: RetryStatsConfig{
			MaxRetries:    rc.maxRetries,
			BatchSize:     rc.batchSize,
			CheckInterval: rc.checkInterval.String(),
		},
	}, nil
}
