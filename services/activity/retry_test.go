package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot/snapshottest"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/store/storetest"
)

var errDown = errors.New("activity table locked")

// flakyStore fails activity inserts while down is set.
type flakyStore struct {
	*store.Store
	down bool
}

func (f *flakyStore) RecordActivity(ctx context.Context, a *models.Activity) error {
	if f.down {
		return errDown
	}
	return f.Store.RecordActivity(ctx, a)
}

type harness struct {
	store *flakyStore
	rc    *RetryConsumer
	clock time.Time
}

func newHarness(t *testing.T, cfg config.RetryConfig) *harness {
	t.Helper()
	h := &harness{store: &flakyStore{Store: storetest.Seeded(t)}, clock: snapshottest.Now}
	h.rc = NewRetryConsumer(h.store, cfg)
	h.rc.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func (h *harness) failed(t *testing.T) models.FailedActivityEvent {
	t.Helper()
	var rows []models.FailedActivityEvent
	require.NoError(t, h.store.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	return rows[0]
}

func event(at time.Time) events.ActivityEvent {
	return events.NewActivityEvent("T1", models.ActivityStatusChanged, models.KindPayment, "Pay1", "payment moved to paid", at)
}

func TestHandleEventStoresOnce(t *testing.T) {
	h := newHarness(t, config.RetryConfig{})
	ctx := context.Background()

	before, err := h.store.Activities.GetAll(ctx)
	require.NoError(t, err)

	e := event(h.clock)
	require.NoError(t, h.rc.HandleEvent(ctx, e))
	require.NoError(t, h.rc.HandleEvent(ctx, e))

	after, err := h.store.Activities.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	stored, err := h.store.Activities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay1", stored.EntityID)
}

func TestHandleEventParksFailures(t *testing.T) {
	h := newHarness(t, config.RetryConfig{})
	h.store.down = true

	e := event(h.clock)
	require.NoError(t, h.rc.HandleEvent(context.Background(), e))

	failed := h.failed(t)
	assert.Equal(t, e.ID, failed.OriginalEventID)
	assert.Equal(t, models.RetryPending, failed.Status)
	assert.Zero(t, failed.RetryCount)
	assert.Equal(t, errDown.Error(), failed.ErrorMessage)
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.Equal(h.clock.Add(time.Minute)))
}

func TestRetryBacksOffThenResolves(t *testing.T) {
	h := newHarness(t, config.RetryConfig{})
	ctx := context.Background()
	h.store.down = true

	e := event(h.clock)
	require.NoError(t, h.rc.HandleEvent(ctx, e))

	n, err := h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "not due yet")

	h.advance(time.Minute)
	n, err = h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	failed := h.failed(t)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, models.RetryPending, failed.Status)
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.Equal(h.clock.Add(time.Minute)))

	h.store.down = false
	h.advance(time.Minute)
	n, err = h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	failed = h.failed(t)
	assert.Equal(t, models.RetryResolved, failed.Status)
	assert.NotNil(t, failed.ResolvedAt)
	assert.Nil(t, failed.NextRetryAt)

	stored, err := h.store.Activities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusChanged, stored.Type)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	h := newHarness(t, config.RetryConfig{MaxRetries: 2})
	ctx := context.Background()
	h.store.down = true

	require.NoError(t, h.rc.HandleEvent(ctx, event(h.clock)))

	h.advance(time.Minute)
	_, err := h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)

	h.advance(time.Minute)
	_, err = h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)

	failed := h.failed(t)
	assert.Equal(t, 2, failed.RetryCount)
	assert.Equal(t, models.RetryPermanentlyFailed, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "Max retries reached")
	assert.Nil(t, failed.NextRetryAt)

	h.advance(time.Hour)
	n, err := h.rc.ProcessFailedEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackoffDoubles(t *testing.T) {
	rc := NewRetryConsumer(nil, config.RetryConfig{})
	assert.Equal(t, time.Minute, rc.backoff(1))
	assert.Equal(t, 2*time.Minute, rc.backoff(2))
	assert.Equal(t, 16*time.Minute, rc.backoff(5))
}

func TestStatsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHarness(t, config.RetryConfig{})
	ctx := context.Background()

	h.store.down = true
	require.NoError(t, h.rc.HandleEvent(ctx, event(h.clock)))
	require.NoError(t, h.rc.HandleEvent(ctx, event(h.clock)))

	router := newRouter(h.rc, h.store)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool       `json:"success"`
		Data    RetryStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, store.RetryCounts{Pending: 2}, body.Data.RetryStats)
	assert.Equal(t, 8, body.Data.Config.MaxRetries)
	assert.Equal(t, "30s", body.Data.Config.CheckInterval)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
