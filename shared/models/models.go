package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind names an entity collection. It is used as the entity type in status
// validation, scope lookups and activity events.
type Kind string

const (
	KindUser        Kind = "user"
	KindProperty    Kind = "property"
	KindUnit        Kind = "unit"
	KindApplication Kind = "application"
	KindLease       Kind = "lease"
	KindPayment     Kind = "payment"
	KindMaintenance Kind = "maintenance_request"
	KindMessage     Kind = "message"
	KindActivity    Kind = "activity"
)

// Kinds lists every collection in load order.
var Kinds = []Kind{
	KindUser, KindProperty, KindUnit, KindApplication, KindLease,
	KindPayment, KindMaintenance, KindMessage, KindActivity,
}

// ErrValidation is wrapped by every invariant violation reported by Validate.
var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
