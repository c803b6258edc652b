// Package taxonomy holds the status vocabularies of the rental entities and
// the transitions allowed between them. Nothing here moves an entity on its
// own: every transition is requested by a write and checked here first.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pavitra93/go-rental-management/shared/models"
)

var (
	// ErrInvalidTransition is returned when a status write leaves a state
	// along an edge the taxonomy does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMissingRequiredNote is returned when a reject-type transition has no justification
	ErrMissingRequiredNote = errors.New("a note is required for this transition")
	// ErrUnknownEntity is returned for entity kinds without a status lifecycle
	ErrUnknownEntity = errors.New("entity has no status taxonomy")
	// ErrUnknownStatus is returned when a status is not part of the entity's vocabulary
	ErrUnknownStatus = errors.New("unknown status")
)

// TransitionError describes a rejected status write.
type TransitionError struct {
	Entity models.Kind
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move %s from %q to %q", ErrInvalidTransition, e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NoteRule says whether a transition carries a justification note.
type NoteRule int

const (
	NoteNone NoteRule = iota
	NoteOptional
	NoteRequired
)

type lifecycle struct {
	edges map[string][]string
	notes map[string]NoteRule // keyed by target status
}

var lifecycles = map[models.Kind]lifecycle{
	models.KindApplication: {
		edges: map[string][]string{
			string(models.ApplicationPending): {
				string(models.ApplicationApproved),
				string(models.ApplicationRejected),
				string(models.ApplicationWithdrawn),
			},
			string(models.ApplicationApproved):  nil,
			string(models.ApplicationRejected):  nil,
			string(models.ApplicationWithdrawn): nil,
		},
		notes: map[string]NoteRule{
			string(models.ApplicationApproved): NoteOptional,
			string(models.ApplicationRejected): NoteRequired,
		},
	},
	models.KindLease: {
		edges: map[string][]string{
			string(models.LeasePending):    {string(models.LeaseActive)},
			string(models.LeaseActive):     {string(models.LeaseEnded), string(models.LeaseTerminated)},
			string(models.LeaseEnded):      nil,
			string(models.LeaseTerminated): nil,
		},
		notes: map[string]NoteRule{
			string(models.LeaseTerminated): NoteRequired,
		},
	},
	models.KindPayment: {
		edges: map[string][]string{
			string(models.PaymentPending): {
				string(models.PaymentPaid),
				string(models.PaymentPartial),
				string(models.PaymentOverdue),
			},
			string(models.PaymentOverdue): {string(models.PaymentPaid)},
			string(models.PaymentPartial): {string(models.PaymentPaid)},
			string(models.PaymentPaid):    nil,
		},
	},
	models.KindMaintenance: {
		edges: map[string][]string{
			string(models.MaintenanceOpen): {
				string(models.MaintenanceInProgress),
				string(models.MaintenanceCancelled),
			},
			string(models.MaintenanceInProgress): {
				string(models.MaintenanceCompleted),
				string(models.MaintenanceCancelled),
			},
			string(models.MaintenanceCompleted): nil,
			string(models.MaintenanceCancelled): nil,
		},
	},
}

// Entities returns the kinds that have a status lifecycle.
func Entities() []models.Kind {
	return []models.Kind{
		models.KindApplication,
		models.KindLease,
		models.KindPayment,
		models.KindMaintenance,
	}
}

// Valid reports whether status belongs to the entity's vocabulary.
func Valid(entity models.Kind, status string) bool {
	lc, ok := lifecycles[entity]
	if !ok {
		return false
	}
	_, ok = lc.edges[status]
	return ok
}

// States lists the entity's statuses, or nil for kinds without a lifecycle.
func States(entity models.Kind) []string {
	lc, ok := lifecycles[entity]
	if !ok {
		return nil
	}
	states := make([]string, 0, len(lc.edges))
	for s := range lc.edges {
		states = append(states, s)
	}
	return states
}

// Terminal reports whether no transition leaves status.
func Terminal(entity models.Kind, status string) bool {
	lc, ok := lifecycles[entity]
	if !ok {
		return false
	}
	next, ok := lc.edges[status]
	return ok && len(next) == 0
}

// CanTransition reports whether a write may move entity from one status to
// another. Writing the current status again is a no-op and always allowed
// for known statuses.
func CanTransition(entity models.Kind, from, to string) bool {
	lc, ok := lifecycles[entity]
	if !ok {
		return false
	}
	next, ok := lc.edges[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Note returns the annotation rule for moving entity into status.
func Note(entity models.Kind, to string) NoteRule {
	return lifecycles[entity].notes[to]
}

// ValidateTransition checks a requested status write. Same-state writes need
// no note; reject-type transitions need a non-empty one.
func ValidateTransition(entity models.Kind, from, to, note string) error {
	lc, ok := lifecycles[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if _, ok := lc.edges[to]; !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownStatus, entity, to)
	}
	if !CanTransition(entity, from, to) {
		return &TransitionError{Entity: entity, From: from, To: to}
	}
	if from != to && Note(entity, to) == NoteRequired && strings.TrimSpace(note) == "" {
		return fmt.Errorf("%w: %s to %q", ErrMissingRequiredNote, entity, to)
	}
	return nil
}

// PriorityRank orders maintenance priorities, urgent highest. Unknown
// priorities rank below low.
func PriorityRank(p models.Priority) int {
	switch p {
	case models.PriorityUrgent:
		return 4
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 1
	}
	return 0
}

// ValidPriority reports whether p is a known maintenance priority.
func ValidPriority(p models.Priority) bool {
	return PriorityRank(p) > 0
}
