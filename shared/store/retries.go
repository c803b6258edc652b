package store

import (
	"context"
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
)

// RetryCounts is the number of failed activity events in each retry status.
type RetryCounts struct {
	Pending           int64 `json:"pending"`
	Resolved          int64 `json:"resolved"`
	PermanentlyFailed int64 `json:"permanently_failed"`
}

// RecordFailedEvent stores an event for retry. An event already waiting is
// left as it is.
func (s *Store) RecordFailedEvent(ctx context.Context, f *models.FailedActivityEvent) error {
	return classify(s.db.WithContext(ctx).Clauses(onConflictDoNothing).Create(f).Error)
}

// DueFailedEvents returns up to limit pending events whose next attempt is
// at or before now, newest first.
func (s *Store) DueFailedEvents(ctx context.Context, now time.Time, limit int) ([]models.FailedActivityEvent, error) {
	var due []models.FailedActivityEvent
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", models.RetryPending, now).
		Order("created_at DESC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, classify(err)
	}
	return due, nil
}

func (s *Store) SaveFailedEvent(ctx context.Context, f *models.FailedActivityEvent) error {
	return classify(s.db.WithContext(ctx).Save(f).Error)
}

func (s *Store) RetryCounts(ctx context.Context) (RetryCounts, error) {
	var rows []struct {
		Status models.RetryStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.FailedActivityEvent{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return RetryCounts{}, classify(err)
	}

	var counts RetryCounts
	for _, r := range rows {
		switch r.Status {
		case models.RetryPending:
			counts.Pending = r.Count
		case models.RetryResolved:
			counts.Resolved = r.Count
		case models.RetryPermanentlyFailed:
			counts.PermanentlyFailed = r.Count
		}
	}
	return counts, nil
}
