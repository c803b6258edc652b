// Package loader reads a full snapshot of the entity store for one actor.
// All collections are read concurrently; a load either sees every
// collection or fails as a whole.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/scope"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// Reader returns a whole collection.
type Reader[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc[T any] func(ctx context.Context) ([]T, error)

func (f ReaderFunc[T]) GetAll(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// Source is one reader per collection.
type Source struct {
	Users        Reader[models.User]
	Properties   Reader[models.Property]
	Units        Reader[models.Unit]
	Applications Reader[models.Application]
	Leases       Reader[models.Lease]
	Payments     Reader[models.Payment]
	Maintenance  Reader[models.MaintenanceRequest]
	Messages     Reader[models.Message]
	Activities   Reader[models.Activity]
}

func FromStore(s *store.Store) Source {
	return Source{
		Users:        s.Users,
		Properties:   s.Properties,
		Units:        s.Units,
		Applications: s.Applications,
		Leases:       s.Leases,
		Payments:     s.Payments,
		Maintenance:  s.Maintenance,
		Messages:     s.Messages,
		Activities:   s.Activities,
	}
}

// View is what one load produced for an actor: the full graph for
// reference lookups, the actor's scope and the scoped graph.
type View struct {
	Actor  models.Actor
	Graph  *snapshot.Graph
	Scope  *scope.Scope
	Scoped *snapshot.Graph
}

// EmptyView is returned alongside every load error.
func EmptyView(actor models.Actor) *View {
	return &View{
		Actor:  actor,
		Graph:  snapshot.Empty(),
		Scope:  scope.Empty(actor),
		Scoped: snapshot.Empty(),
	}
}

// NewView resolves the actor's scope over g.
func NewView(actor models.Actor, g *snapshot.Graph) (*View, error) {
	sc, err := scope.Resolve(actor, g)
	if err != nil {
		return EmptyView(actor), err
	}
	return &View{Actor: actor, Graph: g, Scope: sc, Scoped: sc.Filter(g)}, nil
}

// As re-scopes the same snapshot for another stored user.
func (v *View) As(userID string) (*View, error) {
	u, ok := v.Graph.User(userID)
	if !ok {
		return EmptyView(v.Actor), fmt.Errorf("%w: user %s", store.ErrNotFound, userID)
	}
	return NewView(models.Actor{ID: u.ID, Role: u.Role, Email: u.Email}, v.Graph)
}

type Loader struct {
	src         Source
	breaker     *utils.CircuitBreaker
	readTimeout time.Duration
}

func New(src Source, cfg config.LoaderConfig) *Loader {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	reset := cfg.BreakerReset
	if reset <= 0 {
		reset = 30 * time.Second
	}
	return &Loader{
		src:         src,
		breaker:     utils.NewCircuitBreaker("entity-store", failures, reset),
		readTimeout: timeout,
	}
}

// Breaker exposes the store breaker for health reporting.
func (l *Loader) Breaker() *utils.CircuitBreaker {
	return l.breaker
}

// Collections reads every collection concurrently. The first failure
// cancels the remaining reads and fails the whole load.
func (l *Loader) Collections(ctx context.Context) (snapshot.Collections, error) {
	var c snapshot.Collections
	g, gctx := errgroup.WithContext(ctx)

	read(g, gctx, l, "users", l.src.Users, &c.Users)
	read(g, gctx, l, "properties", l.src.Properties, &c.Properties)
	read(g, gctx, l, "units", l.src.Units, &c.Units)
	read(g, gctx, l, "applications", l.src.Applications, &c.Applications)
	read(g, gctx, l, "leases", l.src.Leases, &c.Leases)
	read(g, gctx, l, "payments", l.src.Payments, &c.Payments)
	read(g, gctx, l, "maintenance", l.src.Maintenance, &c.Maintenance)
	read(g, gctx, l, "messages", l.src.Messages, &c.Messages)
	read(g, gctx, l, "activities", l.src.Activities, &c.Activities)

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return snapshot.Collections{}, ctx.Err()
		}
		if errors.Is(err, store.ErrStoreUnavailable) {
			return snapshot.Collections{}, err
		}
		return snapshot.Collections{}, fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
	}
	return c, nil
}

func read[T any](g *errgroup.Group, ctx context.Context, l *Loader, name string, r Reader[T], dst *[]T) {
	g.Go(func() error {
		if r == nil {
			return fmt.Errorf("no reader for %s", name)
		}
		err := l.breaker.Execute(ctx, func(ctx context.Context) error {
			rctx, cancel := context.WithTimeout(ctx, l.readTimeout)
			defer cancel()

			items, err := r.GetAll(rctx)
			if err != nil {
				return err
			}
			*dst = items
			return nil
		})
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		return nil
	})
}

// Load reads a snapshot and scopes it to actor. On any failure the
// returned view is empty.
func (l *Loader) Load(ctx context.Context, actor models.Actor) (*View, error) {
	if !actor.Role.Valid() {
		return EmptyView(actor), fmt.Errorf("%w: %q", scope.ErrInvalidRole, actor.Role)
	}

	start := time.Now()
	c, err := l.Collections(ctx)
	if err != nil {
		return EmptyView(actor), err
	}

	view, err := NewView(actor, snapshot.New(c))
	if err != nil {
		return view, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  actor.ID,
		"role":     actor.Role,
		"duration": time.Since(start),
	}).Debug("Snapshot loaded")
	return view, nil
}
