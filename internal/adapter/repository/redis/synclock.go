package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SyncLocker implements usecase.SyncLocker using Redis SET NX. One lock per
// provider keeps fetch runs strictly sequential.
type SyncLocker struct {
	client *redis.Client
	prefix string
}

// NewSyncLocker creates a new SyncLocker.
func NewSyncLocker(client *redis.Client) *SyncLocker {
	return &SyncLocker{
		client: client,
		prefix: "synclock:",
	}
}

// Acquire takes the provider lock for runID, reporting false when another run
// holds it. The TTL bounds how long a crashed run can block its successor.
func (l *SyncLocker) Acquire(ctx context.Context, provider, runID string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+provider, runID, ttl).Result()
}

// Release drops the lock only when runID still owns it, so a run that
// outlived its TTL cannot release a successor's lock.
func (l *SyncLocker) Release(ctx context.Context, provider, runID string) error {
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0`

	return l.client.Eval(ctx, script, []string{l.prefix + provider}, runID).Err()
}
