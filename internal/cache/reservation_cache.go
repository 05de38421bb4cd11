// Package cache keeps hydrated reservations in Redis for the read path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"charterdesk/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "reservation:"
	versionTTL = 24 * time.Hour
)

// fillIfUnchanged writes the entry only while the version key still holds
// the value the reader saw before loading from storage.
var fillIfUnchanged = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// ReservationCache stores hydrated reservations next to a per-reservation
// version counter. Writers bump the counter, readers fill only against the
// counter value they observed.
type ReservationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReservationCache(client *redis.Client, ttl time.Duration) *ReservationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReservationCache{client: client, ttl: ttl}
}

// Key and VersionKey share a hash tag so the fill script stays in one slot.
func Key(id string) string {
	return keyPrefix + "{" + id + "}"
}

func VersionKey(id string) string {
	return Key(id) + ":version"
}

// Get returns nil, nil when the reservation is not cached.
func (c *ReservationCache) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	raw, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var r domain.Reservation
	if err := json.Unmarshal(raw, &r); err != nil {
		// A stale entry from an older shape is treated as a miss.
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, nil
	}
	return &r, nil
}

// Version returns the invalidation counter, 0 when the reservation was never
// invalidated.
func (c *ReservationCache) Version(ctx context.Context, id string) (int64, error) {
	v, err := c.client.Get(ctx, VersionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version %s: %w", id, err)
	}
	return v, nil
}

// Fill caches r unless the reservation was invalidated after version was
// read. It reports whether the entry was written.
func (c *ReservationCache) Fill(ctx context.Context, r *domain.Reservation, version int64) (bool, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("marshal reservation: %w", err)
	}

	n, err := fillIfUnchanged.Run(ctx, c.client,
		[]string{Key(r.ID), VersionKey(r.ID)},
		strconv.FormatInt(version, 10),
		string(raw),
		c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis fill %s: %w", r.ID, err)
	}
	return n == 1, nil
}

// Invalidate bumps the version before dropping the entry, so a reader that
// loaded the old row can no longer fill it back.
func (c *ReservationCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Incr(ctx, VersionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis incr version %s: %w", id, err)
	}
	if err := c.client.Expire(ctx, VersionKey(id), versionTTL).Err(); err != nil {
		return fmt.Errorf("redis expire version %s: %w", id, err)
	}
	if err := c.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// Connect builds a client and pings it. A failed ping closes the client.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
