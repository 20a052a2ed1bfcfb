// Package rd provides a redis client for locks, counters, and queues
package rd

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when a lock could not be taken within the wait window
var ErrNotAcquired = errors.New("rd: lock not acquired")

// Config configures redis connectivity
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RD wraps a redis client
type RD struct {
	cli *redis.Client

	// sleep is a test seam
	sleep func(time.Duration)
}

// Open builds a client; the driver dials lazily on first command
func Open(_ context.Context, cfg Config) (*RD, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rd: empty addr")
	}
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RD{cli: cli, sleep: time.Sleep}, nil
}

// Ping verifies connectivity
func (r *RD) Ping(ctx context.Context) error { return r.cli.Ping(ctx).Err() }

// Close closes the underlying client
func (r *RD) Close() error {
	if r == nil || r.cli == nil {
		return nil
	}
	return r.cli.Close()
}

// releaseScript deletes the lock key only when it still holds our token,
// so an expired-and-retaken lock is never released by the old holder
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Mutex is a held named lock
type Mutex struct {
	cli   *redis.Client
	key   string
	token string
}

// Release frees the lock if this handle still owns it
func (m *Mutex) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, m.cli, []string{m.key}, m.token).Err()
}

// Acquire takes a named lock with SET NX PX, polling with jitter up to wait.
// Returns ErrNotAcquired when the window elapses with the lock still held elsewhere
func (r *RD) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (*Mutex, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Mutex{cli: r.cli, key: key, token: token}, nil
		}
		if wait <= 0 || time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.sleep(pollInterval())
	}
}

// pollInterval jitters retries so contending workers do not stampede
func pollInterval() time.Duration {
	return 50*time.Millisecond + time.Duration(rand.Int63n(int64(100*time.Millisecond)))
}

// Increment bumps key atomically and refreshes its expiry
func (r *RD) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.cli.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ObserveDistinct adds member to a hyperloglog at key and returns the
// approximate distinct count seen within the expiry window
func (r *RD) ObserveDistinct(ctx context.Context, key, member string, ttl time.Duration) (int64, error) {
	pipe := r.cli.TxPipeline()
	pipe.PFAdd(ctx, key, member)
	pipe.Expire(ctx, key, ttl)
	count := pipe.PFCount(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return count.Val(), nil
}

// MarkOnce sets key when absent; true means this call created the marker
func (r *RD) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.cli.SetNX(ctx, key, "1", ttl).Result()
}

// Push appends a payload to a named list queue
func (r *RD) Push(ctx context.Context, queue string, payload []byte) error {
	return r.cli.LPush(ctx, queue, payload).Err()
}
