package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
)

// ActorCache keeps resolved actor claims by user id so that role lookups
// do not hit the database on every request. Profile changes must call
// Invalidate so the next request resolves the actor again.
type ActorCache struct {
	kv  KVStore
	ttl time.Duration
}

func NewActorCache(kv KVStore, ttl time.Duration) *ActorCache {
	return &ActorCache{kv: kv, ttl: ttl}
}

func actorKey(userID string) string {
	return "actor:claims:" + userID
}

// Get returns ErrCacheMiss when the actor is not cached.
func (c *ActorCache) Get(ctx context.Context, userID string) (models.Actor, error) {
	data, err := c.kv.Get(ctx, actorKey(userID))
	if err != nil {
		return models.Actor{}, err
	}
	var actor models.Actor
	if err := json.Unmarshal([]byte(data), &actor); err != nil {
		return models.Actor{}, fmt.Errorf("failed to unmarshal actor: %w", err)
	}
	return actor, nil
}

func (c *ActorCache) Put(ctx context.Context, actor models.Actor) error {
	data, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor: %w", err)
	}
	return c.kv.Set(ctx, actorKey(actor.ID), string(data), c.ttl)
}

func (c *ActorCache) Invalidate(ctx context.Context, userID string) error {
	return c.kv.Del(ctx, actorKey(userID))
}
