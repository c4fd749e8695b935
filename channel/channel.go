// Package channel implements a typed, in-process, CSP-style message
// endpoint supporting buffered and unbuffered modes, blocking and
// non-blocking send/receive, and an explicit close protocol.
package channel

import (
	"errors"
	"sync"
)

// ErrClosedSend is returned by Send, and surfaced through the future
// returned by AsyncSend, when a send is attempted on a channel that is
// closed at the moment of commit.
var ErrClosedSend = errors.New("channel: send on closed channel")

// Notifier is an external wakeup subscription. A Channel signals every
// registered Notifier on each state transition (send, receive, close).
// Notify must not call back into the channel that signaled it.
type Notifier interface {
	Notify()
}

type notifierEntry struct {
	id int
	n  Notifier
}

// Channel is a typed endpoint with a fixed capacity fixed at
// construction. capacity == 0 makes it an unbuffered (rendezvous)
// channel; capacity > 0 makes it a bounded FIFO queue. The zero value
// is not usable; construct with New.
type Channel[T any] struct {
	mu sync.Mutex

	sendCond *sync.Cond
	recvCond *sync.Cond

	capacity int

	// buffered mode (capacity > 0)
	buffer []T

	// unbuffered mode (capacity == 0)
	slot      T
	slotFull  bool
	nWaitRecv int

	closed bool

	notifiers []notifierEntry
	nextNotID int
}

// New constructs a Channel with the given capacity. capacity == 0
// yields an unbuffered (rendezvous) channel.
func New[T any](capacity int) *Channel[T] {
	if capacity < 0 {
		panic("channel: negative capacity")
	}

	c := &Channel[T]{capacity: capacity}
	if capacity > 0 {
		c.buffer = make([]T, 0, capacity)
	}

	c.sendCond = sync.NewCond(&c.mu)
	c.recvCond = sync.NewCond(&c.mu)

	return c
}

// notifyAllLocked wakes every registered notifier. Must be called with
// c.mu held; Notify implementations must not re-enter the channel.
func (c *Channel[T]) notifyAllLocked() {
	for _, e := range c.notifiers {
		e.n.Notify()
	}
}

// AddNotifier registers n to be signaled on every state transition of
// c until the returned remove func is called. Callers (chiefly
// selectx.Select) must call remove once they stop waiting on c, or the
// subscription outlives its purpose.
func (c *Channel[T]) AddNotifier(n Notifier) (remove func()) {
	c.mu.Lock()
	id := c.nextNotID
	c.nextNotID++
	c.notifiers = append(c.notifiers, notifierEntry{id: id, n: n})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		for i, e := range c.notifiers {
			if e.id == id {
				c.notifiers = append(c.notifiers[:i], c.notifiers[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}
}

// Send blocks until v is handed to a receiver (unbuffered) or stored
// in the buffer (buffered). It returns ErrClosedSend if the channel is
// closed at entry or becomes closed while waiting; v is never silently
// dropped.
func (c *Channel[T]) Send(v T) error {
	if c.capacity > 0 {
		return c.sendBuffered(v)
	}
	return c.sendUnbuffered(v)
}

func (c *Channel[T]) sendBuffered(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosedSend
	}

	for len(c.buffer) >= c.capacity && !c.closed {
		c.sendCond.Wait()
	}

	if c.closed {
		return ErrClosedSend
	}

	c.buffer = append(c.buffer, v)
	c.recvCond.Signal()
	c.notifyAllLocked()

	return nil
}

func (c *Channel[T]) sendUnbuffered(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosedSend
	}

	for c.slotFull && !c.closed {
		c.sendCond.Wait()
	}

	if c.closed {
		return ErrClosedSend
	}

	c.slot = v
	c.slotFull = true
	c.recvCond.Signal()
	c.notifyAllLocked()

	// Two-phase wait: do not return until a receiver has taken the
	// value, or the channel is closed after the value was published
	// (by then it is observable and the send has done its job).
	for c.slotFull && !c.closed {
		c.sendCond.Wait()
	}

	return nil
}

// Receive blocks until an element is available. It returns the
// element and true on success, or the zero value and false iff the
// channel is closed and there is no element left to drain.
func (c *Channel[T]) Receive() (T, bool) {
	if c.capacity > 0 {
		return c.receiveBuffered()
	}
	return c.receiveUnbuffered()
}

func (c *Channel[T]) receiveBuffered() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.buffer) == 0 && !c.closed {
		c.recvCond.Wait()
	}

	if len(c.buffer) == 0 {
		var zero T
		return zero, false
	}

	v := c.buffer[0]
	c.buffer = c.buffer[1:]
	c.sendCond.Signal()
	c.notifyAllLocked()

	return v, true
}

func (c *Channel[T]) receiveUnbuffered() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nWaitRecv++
	for !c.slotFull && !c.closed {
		c.recvCond.Wait()
	}
	c.nWaitRecv--

	if !c.slotFull {
		var zero T
		return zero, false
	}

	v := c.slot
	var zero T
	c.slot = zero
	c.slotFull = false
	c.sendCond.Signal()
	c.notifyAllLocked()

	return v, true
}

// TrySend never blocks. It reports whether v was accepted atomically:
// false if the channel is closed, the buffer is full (buffered), or no
// receiver is currently parked (unbuffered — depositing into an empty
// slot with no parked receiver would orphan the value).
func (c *Channel[T]) TrySend(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	if c.capacity > 0 {
		if len(c.buffer) >= c.capacity {
			return false
		}

		c.buffer = append(c.buffer, v)
		c.recvCond.Signal()
		c.notifyAllLocked()

		return true
	}

	if c.slotFull || c.nWaitRecv == 0 {
		return false
	}

	c.slot = v
	c.slotFull = true
	c.recvCond.Signal()
	c.notifyAllLocked()

	return true
}

// TryReceive never blocks. It reports an element and true if one is
// immediately available, or the zero value and false otherwise
// (including when closed and empty).
func (c *Channel[T]) TryReceive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity > 0 {
		if len(c.buffer) == 0 {
			var zero T
			return zero, false
		}

		v := c.buffer[0]
		c.buffer = c.buffer[1:]
		c.sendCond.Signal()
		c.notifyAllLocked()

		return v, true
	}

	if !c.slotFull {
		var zero T
		return zero, false
	}

	v := c.slot
	var zero T
	c.slot = zero
	c.slotFull = false
	c.sendCond.Signal()
	c.notifyAllLocked()

	return v, true
}

// Close is idempotent. It wakes every blocked sender (to fail) and
// every blocked receiver (to drain remaining values or return false
// thereafter), and signals every registered Notifier. Close never
// discards a pending unbuffered slot: a receive on a closed unbuffered
// channel whose slot is still full returns that value before ever
// returning false.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.sendCond.Broadcast()
	c.recvCond.Broadcast()
	c.notifyAllLocked()
}

// IsClosed reports whether Close has been called. Once true it never
// reverts to false.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Empty reports whether the channel currently holds no value: an
// empty buffer (buffered) or an empty slot (unbuffered).
func (c *Channel[T]) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity > 0 {
		return len(c.buffer) == 0
	}

	return !c.slotFull
}

// IsReceiveReady reports whether an element is immediately available:
// the buffer is non-empty (buffered), or the slot holds a value
// (unbuffered). A closed-and-empty channel is not receive-ready — it
// has no element to deliver — even though Receive/TryReceive on it
// return immediately with ok=false; callers that need to detect
// closure through Select must check IsClosed once Select stops
// reporting the channel ready, mirroring the C++ original this
// implementation is ported from.
func (c *Channel[T]) IsReceiveReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity > 0 {
		return len(c.buffer) > 0
	}

	return c.slotFull
}

// Cap returns the channel's fixed capacity (0 for unbuffered).
func (c *Channel[T]) Cap() int {
	return c.capacity
}
