// Package store is the Entity Store: typed gorm repositories for every rental
// collection plus the whitelisted domain writes. Status writes are checked
// against the taxonomy inside the same transaction that saves them, so a
// rejected write never mutates the store.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pavitra93/go-rental-management/shared/models"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time

	Users        *Repository[models.User]
	Properties   *Repository[models.Property]
	Units        *Repository[models.Unit]
	Applications *Repository[models.Application]
	Leases       *Repository[models.Lease]
	Payments     *Repository[models.Payment]
	Maintenance  *Repository[models.MaintenanceRequest]
	Messages     *Repository[models.Message]
	Activities   *Repository[models.Activity]
}

type Option func(*Store)

// WithClock overrides the time source used for resolved, paid and read stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		now: time.Now,

		Users:        newRepository[models.User](db, models.KindUser, []string{"role", "cognito_id", "email"}),
		Properties:   newRepository[models.Property](db, models.KindProperty, []string{"landlord_id"}),
		Units:        newRepository[models.Unit](db, models.KindUnit, []string{"property_id"}),
		Applications: newRepository[models.Application](db, models.KindApplication, []string{"unit_id", "tenant_id"}),
		Leases:       newRepository[models.Lease](db, models.KindLease, []string{"unit_id", "tenant_id"}),
		Payments:     newRepository[models.Payment](db, models.KindPayment, []string{"lease_id", "tenant_id"}),
		Maintenance: newRepository[models.MaintenanceRequest](db, models.KindMaintenance, []string{"unit_id", "tenant_id"},
			func(tx *gorm.DB) *gorm.DB {
				return tx.Preload("Comments", func(db *gorm.DB) *gorm.DB {
					return db.Order("created_at ASC, id ASC")
				})
			}),
		Messages:   newRepository[models.Message](db, models.KindMessage, []string{"sender_id", "receiver_id"}),
		Activities: newRepository[models.Activity](db, models.KindActivity, []string{"user_id"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for callers that manage their own tables.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tables lists every model the store and the activity pipeline persist.
func Tables() []any {
	return []any{
		&models.User{},
		&models.Property{},
		&models.Unit{},
		&models.Application{},
		&models.Lease{},
		&models.Payment{},
		&models.MaintenanceRequest{},
		&models.Comment{},
		&models.Message{},
		&models.Activity{},
		&models.FailedActivityEvent{},
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify(err)
	}
	return classify(sqlDB.PingContext(ctx))
}

// MessagesForUser returns messages sent or received by userID.
func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, classify(err)
	}
	return msgs, nil
}

// RecordActivity inserts an activity. Replaying an id that already exists is
// a no-op.
func (s *Store) RecordActivity(ctx context.Context, a *models.Activity) error {
	return classify(s.db.WithContext(ctx).Clauses(onConflictDoNothing).Create(a).Error)
}
