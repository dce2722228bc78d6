package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 50 * time.Millisecond

// LockStore handles distributed per-ride locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireRideLock acquires the lock for the given ride, polling until the
// lock is free or ctx is done. Returns false only when ctx expires first.
// The TTL bounds how long a crashed holder can block other bookings.
func (s *LockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	key := rideLockKey(rideID)

	for {
		ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(lockRetryInterval):
		}
	}
}

// ReleaseRideLock releases the lock for the given ride.
func (s *LockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideLockKey(rideID)).Err()
}

func rideLockKey(rideID string) string {
	return fmt.Sprintf("lock:ride:%s", rideID)
}
