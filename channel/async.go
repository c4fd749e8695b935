package channel

import "github.com/thisisnitish/gochan/asyncpool"

// Received is the outcome of an AsyncReceive: the value (if any) and
// whether one was available before the channel closed and drained.
type Received[T any] struct {
	Value T
	OK    bool
}

// AsyncSend returns a Future that completes when the corresponding
// Send would return. If pool is nil, the package-level default pool
// is used. A closed channel surfaces ErrClosedSend through the
// Future's Await, exactly as the blocking Send would return it.
func (c *Channel[T]) AsyncSend(pool *asyncpool.Pool, v T) *asyncpool.Future[struct{}] {
	if pool == nil {
		pool = asyncpool.Default()
	}

	return asyncpool.Submit(pool, func() (struct{}, error) {
		return struct{}{}, c.Send(v)
	})
}

// AsyncReceive returns a Future that completes when the corresponding
// Receive would return. If pool is nil, the package-level default
// pool is used.
func (c *Channel[T]) AsyncReceive(pool *asyncpool.Pool) *asyncpool.Future[Received[T]] {
	if pool == nil {
		pool = asyncpool.Default()
	}

	return asyncpool.Submit(pool, func() (Received[T], error) {
		v, ok := c.Receive()
		return Received[T]{Value: v, OK: ok}, nil
	})
}
