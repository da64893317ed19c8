// Package lease coordinates background jobs across API replicas through
// Redis: a short-lived lock so only one replica runs a scheduled job per
// tick, and a marker so one-off actions such as reminders happen once.
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out named leases. A held lease expires on its own after ttl.
type Locker struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewLocker constructs a Locker storing its keys under prefix.
func NewLocker(rdb redis.UniversalClient, prefix string) *Locker {
	return &Locker{rdb: rdb, prefix: prefix}
}

// Lease is a held lock. Release it when the job is done.
type Lease struct {
	rdb   redis.UniversalClient
	key   string
	token string
}

// TryAcquire takes the named lease for ttl. It returns (nil, nil) when
// another holder has it.
func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	key := l.prefix + "lock:" + name
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lease.Locker.TryAcquire %q: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lease{rdb: l.rdb, key: key, token: token}, nil
}

// Release gives the lease back. Releasing a lease that already expired and
// was taken by someone else is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lease.Lease.Release %q: %w", l.key, err)
	}
	return nil
}

// Marker remembers keys for a while. It satisfies service.Marker.
type Marker struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewMarker constructs a Marker storing its keys under prefix.
func NewMarker(rdb redis.UniversalClient, prefix string) *Marker {
	return &Marker{rdb: rdb, prefix: prefix}
}

// Once reports whether this is the first call for key within ttl.
func (m *Marker) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.rdb.SetNX(ctx, m.prefix+"once:"+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease.Marker.Once %q: %w", key, err)
	}
	return ok, nil
}
