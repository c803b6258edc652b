package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/taxonomy"
)

var (
	// ErrNotFound is returned when no entity has the requested id
	ErrNotFound = errors.New("entity not found")
	// ErrStoreUnavailable wraps every database failure
	ErrStoreUnavailable = errors.New("entity store unavailable")
	// ErrImmutableField is returned when a patch touches a field that may not change
	ErrImmutableField = errors.New("field cannot be changed")
	// ErrInvalidColumn is returned when a related lookup names a column that is not indexed for it
	ErrInvalidColumn = errors.New("invalid related column")
)

// domainErrors pass through classify untouched.
var domainErrors = []error{
	ErrNotFound,
	ErrStoreUnavailable,
	ErrImmutableField,
	ErrInvalidColumn,
	models.ErrValidation,
	taxonomy.ErrInvalidTransition,
	taxonomy.ErrMissingRequiredNote,
	taxonomy.ErrUnknownStatus,
	taxonomy.ErrUnknownEntity,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func immutable(field string) error {
	return fmt.Errorf("%w: %s", ErrImmutableField, field)
}
