package flight

import (
	"context"
	"sync"
	"time"
)

// Cache coalesces concurrent identical work and keeps finished results for
// a bounded window, so repeated submissions of the same input do not each
// hit the billed remote model.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]entry[V]
	pending  map[K]*job[V]
	work     func(context.Context, K) (V, error)
	ttl      time.Duration
}

type entry[V any] struct {
	val     V
	expires time.Time
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(context.Context, K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		finished: make(map[K]entry[V]),
		pending:  make(map[K]*job[V]),
		work:     work,
		ttl:      time.Hour,
	}
}

// Expiry sets how long finished results are kept. d <= 0 disables caching
// of finished results entirely; coalescing of in-flight work remains.
func (c *Cache[K, V]) Expiry(d time.Duration) {
	c.mu.Lock()
	c.ttl = d
	c.mu.Unlock()
}

// Get returns the cached result for k, joins an in-flight computation of k,
// or runs the work itself. Joiners give up when their own ctx is done; the
// computation keeps running under the initiating caller's ctx.
func (c *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	c.mu.Lock()

	if e, ok := c.finished[k]; ok {
		if time.Now().Before(e.expires) {
			c.mu.Unlock()
			return e.val, nil
		}
		delete(c.finished, k)
	}

	if j, ok := c.pending[k]; ok {
		c.mu.Unlock()
		select {
		case <-j.done:
			return j.val, j.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	j := &job[V]{done: make(chan struct{})}
	c.pending[k] = j
	ttl := c.ttl
	c.mu.Unlock()

	j.val, j.err = c.work(ctx, k)

	c.mu.Lock()
	if j.err == nil && ttl > 0 {
		c.finished[k] = entry[V]{val: j.val, expires: time.Now().Add(ttl)}
	}
	delete(c.pending, k)
	c.mu.Unlock()
	close(j.done)

	return j.val, j.err
}

// Forget drops any finished result for k.
func (c *Cache[K, V]) Forget(k K) {
	c.mu.Lock()
	delete(c.finished, k)
	c.mu.Unlock()
}
