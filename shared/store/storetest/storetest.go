// Package storetest opens seeded in-memory stores for handler tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pavitra93/go-rental-management/shared/snapshot/snapshottest"
	"github.com/pavitra93/go-rental-management/shared/store"
)

// Open returns an empty, migrated store on a private sqlite database.
func Open(t *testing.T) *store.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.New(db, store.WithClock(func() time.Time { return snapshottest.Now }))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// Seeded returns a store holding the snapshottest portfolio.
func Seeded(t *testing.T) *store.Store {
	t.Helper()
	s := Open(t)
	require.NoError(t, s.Seed(context.Background(), snapshottest.Portfolio()))
	return s
}
