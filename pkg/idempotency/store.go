// Package idempotency provides a redis-backed replay guard. The payment
// provider redelivers callbacks on its own retry schedule; the guard
// lets handlers short-circuit a redelivered callback before touching
// the order store.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// CallbackKey identifies one callback delivery: kind is success, fail
// or cancel, scoped by the order's transaction identifier.
func CallbackKey(kind, transactionID string) string {
	return fmt.Sprintf("cb:%s:%s", kind, transactionID)
}

// Seen reports whether key has been marked. It never writes: a
// callback that fails downstream must stay retryable, so marking is a
// separate step taken after the guarded operation commits.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records key for the TTL window.
func (s *Store) Mark(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}
