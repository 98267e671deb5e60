package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// release only deletes the key if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short leases so that only one scheduler replica runs a
// given job per tick.
type Locker struct {
	R *redis.Client
}

// TryLock returns ok=false when another owner holds the lease.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error) {
	key := fmt.Sprintf(KeyJobLock, name)
	owner := uuid.NewString()
	ok, err = l.R.SetNX(ctx, key, owner, ttl).Result()
	if err != nil || !ok {
		return func() {}, ok, err
	}
	return func() {
		// the lease still expires on its own if the delete fails
		_ = releaseScript.Run(context.Background(), l.R, []string{key}, owner).Err()
	}, true, nil
}

// Dedup remembers processed event ids.
type Dedup struct {
	R       *redis.Client
	Service string
}

// FirstSeen marks id as processed and reports whether it was new.
func (d *Dedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	return d.R.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Idempotency caches the response of a keyed create request.
type Idempotency struct {
	R *redis.Client
}

func (i *Idempotency) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := i.R.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (i *Idempotency) Remember(ctx context.Context, key string, body []byte) error {
	return i.R.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), body, TTLIdempotency).Err()
}
