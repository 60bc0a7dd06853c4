package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nimasrn/payment-tracker/pkg/redis"
	"github.com/pkg/errors"
)

const SnapshotKey = "dashboard:snapshot"

type SnapshotCache interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// RedisSnapshotCache shares the latest render between API replicas and the CLI.
type RedisSnapshotCache struct {
	adapter redis.RedisAdapter
	ttl     time.Duration
}

func NewRedisSnapshotCache(adapter redis.RedisAdapter, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{adapter: adapter, ttl: ttl}
}

func (c *RedisSnapshotCache) Save(ctx context.Context, s *Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	if err := c.adapter.Set(ctx, SnapshotKey, b, c.ttl); err != nil {
		return errors.Wrap(err, "store snapshot")
	}
	return nil
}

// Load returns nil and no error when nothing is cached.
func (c *RedisSnapshotCache) Load(ctx context.Context) (*Snapshot, error) {
	b, err := c.adapter.Get(ctx, SnapshotKey)
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load snapshot")
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return &s, nil
}
