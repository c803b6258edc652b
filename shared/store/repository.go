package store

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pavitra93/go-rental-management/shared/models"
)

type validator interface {
	Validate() error
}

// Repository gives typed CRUD access to one entity table.
type Repository[T any] struct {
	db      *gorm.DB
	kind    models.Kind
	related map[string]bool
	scopes  []func(*gorm.DB) *gorm.DB
}

func newRepository[T any](db *gorm.DB, kind models.Kind, related []string, scopes ...func(*gorm.DB) *gorm.DB) *Repository[T] {
	r := &Repository[T]{db: db, kind: kind, related: map[string]bool{}, scopes: scopes}
	for _, col := range related {
		r.related[col] = true
	}
	return r
}

func (r *Repository[T]) Kind() models.Kind {
	return r.kind
}

func (r *Repository[T]) read(tx *gorm.DB) *gorm.DB {
	return tx.Scopes(r.scopes...)
}

// GetAll returns every row, oldest first.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	var items []T
	err := r.read(r.db.WithContext(ctx)).Order("created_at ASC, id ASC").Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.read(r.db.WithContext(ctx)).First(&item, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &item, nil
}

// GetByRelated returns the rows whose foreign key column equals id.
func (r *Repository[T]) GetByRelated(ctx context.Context, column, id string) ([]T, error) {
	if !r.related[column] {
		return nil, fmt.Errorf("%w: %s has no lookup by %q", ErrInvalidColumn, r.kind, column)
	}
	var items []T
	err := r.read(r.db.WithContext(ctx)).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: id}).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// Create validates item and inserts it.
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	if v, ok := any(item).(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

// Update loads the row inside a transaction, applies mutate and saves the
// result. A patch that changes nothing performs no write and returns the
// stored row unchanged. Any error from mutate or validation rolls back.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate func(item *T) error) (*T, error) {
	var out T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current T
		if err := r.read(forUpdate(tx)).First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		next := current
		if err := mutate(&next); err != nil {
			return err
		}
		if reflect.DeepEqual(current, next) {
			out = current
			return nil
		}
		if v, ok := any(&next).(validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

// forUpdate locks the selected row on dialects that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
