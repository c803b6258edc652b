package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/pavitra93/go-rental-management/shared/snapshot"
)

// Seed inserts every collection in one transaction. Rows whose id already
// exists are skipped, so seeding twice is harmless.
func (s *Store) Seed(ctx context.Context, c snapshot.Collections) error {
	return classify(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func() error{
			func() error { return createAll(tx, c.Users) },
			func() error { return createAll(tx, c.Properties) },
			func() error { return createAll(tx, c.Units) },
			func() error { return createAll(tx, c.Applications) },
			func() error { return createAll(tx, c.Leases) },
			func() error { return createAll(tx, c.Payments) },
			func() error { return createAll(tx, c.Maintenance) },
			func() error { return createAll(tx, c.Messages) },
			func() error { return createAll(tx, c.Activities) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	}))
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(onConflictDoNothing).Create(&rows).Error
}
