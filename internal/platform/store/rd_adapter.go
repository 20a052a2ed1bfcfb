package store

import (
	"context"
	"errors"
	"time"

	"herald/internal/platform/store/rd"
)

// ErrLockNotAcquired is returned by the Locker seam when the wait window elapses
var ErrLockNotAcquired = rd.ErrNotAcquired

// newRDAdapter wraps *rd.RD as the store.KV seam
func newRDAdapter(r *rd.RD) KV {
	return &kvAdapter{inner: r}
}

// kvAdapter adapts *rd.RD to the store.KV interface
type kvAdapter struct {
	inner *rd.RD
}

var _ KV = (*kvAdapter)(nil)

func (a *kvAdapter) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (MutexHandle, error) {
	m, err := a.inner.Acquire(ctx, key, ttl, wait)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (a *kvAdapter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return a.inner.Increment(ctx, key, ttl)
}

func (a *kvAdapter) ObserveDistinct(ctx context.Context, key, member string, ttl time.Duration) (int64, error) {
	return a.inner.ObserveDistinct(ctx, key, member, ttl)
}

func (a *kvAdapter) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return a.inner.MarkOnce(ctx, key, ttl)
}

func (a *kvAdapter) Push(ctx context.Context, queue string, payload []byte) error {
	return a.inner.Push(ctx, queue, payload)
}

func (a *kvAdapter) Close() error { return a.inner.Close() }

// Ping verifies connectivity with redis
func (a *kvAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil redis adapter")
	}
	return a.inner.Ping(ctx)
}
