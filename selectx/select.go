// Package selectx implements a multi-way wait primitive that races
// send and receive intents across distinct channels, optionally with
// a default fallback, blocking wait, timeout, and cancellation.
package selectx

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thisisnitish/gochan/channel"
)

type caseKind int

const (
	kindSend caseKind = iota
	kindRecv
	kindDefault
)

// Case is one candidate action registered with a Select: a send to a
// channel, a receive from a channel, or the default fallback.
type Case[T any] struct {
	kind   caseKind
	ch     *channel.Channel[T]
	toSend T

	recvValue T
	success   bool
}

// Success reports whether this case was the one chosen by the most
// recent Run/RunBlocking and its action completed.
func (c *Case[T]) Success() bool { return c.success }

// RecvValue returns the value received by this case, if it was a
// receive case chosen by the most recent Run/RunBlocking.
func (c *Case[T]) RecvValue() T { return c.recvValue }

// Select accumulates Case[T] entries and executes them against a set
// of channel.Channel[T] instances. Building is single-threaded;
// executing a given Select instance is single-threaded, except that
// another goroutine may call Cancel.
type Select[T any] struct {
	cases      []*Case[T]
	hasDefault bool

	selectedIndex int // -1 means "no selection"

	cancelled atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
	// woken is bumped on every Notify so RunBlocking can distinguish a
	// real wakeup from a spurious one without missing a signal that
	// arrived between unlocking and re-locking.
	woken uint64
}

// New constructs an empty Select.
func New[T any]() *Select[T] {
	s := &Select[T]{selectedIndex: -1}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Notify implements channel.Notifier: it wakes any goroutine blocked
// in RunBlocking. Must not be called from within a channel's own
// lock-holding callback in a way that re-enters that channel.
func (s *Select[T]) Notify() {
	s.mu.Lock()
	s.woken++
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Receive registers a receive case against ch and returns s for
// chaining.
func (s *Select[T]) Receive(ch *channel.Channel[T]) *Select[T] {
	s.cases = append(s.cases, &Case[T]{kind: kindRecv, ch: ch})
	return s
}

// Send registers a send case of v against ch and returns s for
// chaining.
func (s *Select[T]) Send(ch *channel.Channel[T], v T) *Select[T] {
	s.cases = append(s.cases, &Case[T]{kind: kindSend, ch: ch, toSend: v})
	return s
}

// Default registers the default fallback case. It is idempotent: a
// second call is a no-op.
func (s *Select[T]) Default() *Select[T] {
	s.hasDefault = true
	return s
}

// Cancel sets the cancellation flag. It causes a blocked RunBlocking
// to return promptly with no selection. It does not roll back any
// case already committed by a prior successful Run.
func (s *Select[T]) Cancel() {
	s.cancelled.Store(true)
	s.Notify()
}

// Cancelled reports whether Cancel has been called.
func (s *Select[T]) Cancelled() bool {
	return s.cancelled.Load()
}

// SelectedIndex returns the index of the case chosen by the most
// recent successful Run/RunBlocking, len(cases) if the default case
// was taken, or -1 if there is no selection.
func (s *Select[T]) SelectedIndex() int {
	return s.selectedIndex
}

// Cases exposes the registered cases in registration order, primarily
// so callers can read RecvValue/Success after a run.
func (s *Select[T]) Cases() []*Case[T] {
	return s.cases
}

func (s *Select[T]) resetScratch() {
	for _, c := range s.cases {
		c.success = false
		var zero T
		c.recvValue = zero
	}
	s.selectedIndex = -1
}

// Run performs a single non-blocking pass: it probes every case,
// picks uniformly at random among the ready ones, commits it, and
// reports whether a selection was made (a chosen case or the default).
//
// RECV probes are non-committing (readiness only); SEND probes commit
// immediately via TrySend. If the randomly chosen case is a RECV and a
// racing consumer drains the channel between probe and commit, Run
// clears the selection and returns false — the caller is expected to
// retry.
func (s *Select[T]) Run() bool {
	if s.Cancelled() {
		return false
	}

	s.resetScratch()

	ready := make([]int, 0, len(s.cases))

	for i, c := range s.cases {
		switch c.kind {
		case kindRecv:
			if c.ch.IsReceiveReady() {
				ready = append(ready, i)
			}

		case kindSend:
			if c.ch.TrySend(c.toSend) {
				// Commits immediately; if this index is not the one
				// chosen below, the value has still left this case's
				// ownership (see selectx commit-asymmetry design note).
				ready = append(ready, i)
			}
		}
	}

	if len(ready) > 0 {
		idx := ready[rand.IntN(len(ready))]
		chosen := s.cases[idx]

		if chosen.kind == kindSend {
			chosen.success = true
			s.selectedIndex = idx
			return true
		}

		// kindRecv: commit now.
		v, ok := chosen.ch.TryReceive()
		if !ok {
			s.selectedIndex = -1
			return false
		}

		chosen.recvValue = v
		chosen.success = true
		s.selectedIndex = idx

		return true
	}

	if s.hasDefault {
		s.selectedIndex = len(s.cases)
		return true
	}

	return false
}

// RunBlocking waits until one case becomes ready, the deadline implied
// by timeout passes, or Cancel is called. A Select with a default
// case is inherently non-blocking: Run always succeeds immediately, so
// RunBlocking returns on its first pass. A zero or negative timeout
// means "no timeout" (wait indefinitely barring cancellation).
//
// It returns the selected index (len(cases) for default) and true, or
// -1 and false if cancelled or timed out with no selection.
func (s *Select[T]) RunBlocking(timeout time.Duration) (int, bool) {
	removers := make([]func(), 0, len(s.cases))
	seen := make(map[*channel.Channel[T]]bool, len(s.cases))

	for _, c := range s.cases {
		if c.ch == nil || seen[c.ch] {
			continue
		}
		seen[c.ch] = true
		removers = append(removers, c.ch.AddNotifier(s))
	}

	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		if s.Cancelled() {
			return -1, false
		}

		// Snapshot the wakeup count before probing, so a Notify that
		// lands after Run's probes but before waitFor is not missed.
		s.mu.Lock()
		start := s.woken
		s.mu.Unlock()

		if s.Run() {
			if idx := s.SelectedIndex(); idx >= 0 {
				return idx, true
			}
			// Not reached: Run reports true only with a selection set.
			// A RECV race makes Run return false and is re-probed
			// after the wait below.
			continue
		}

		if hasDeadline {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return -1, false
			}
			s.waitFor(start, remaining)
			continue
		}

		s.waitFor(start, 0)
	}
}

// waitFor blocks until s.woken moves past start (the count RunBlocking
// read before its last probe), Cancel fires, or (when d > 0) the
// duration elapses. Every return is treated as "re-probe"; the
// caller's deadline/cancellation checks at the top of the loop decide
// whether to give up.
func (s *Select[T]) waitFor(start uint64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d <= 0 {
		for s.woken == start && !s.cancelled.Load() {
			s.cond.Wait()
		}
		return
	}

	timer := time.AfterFunc(d, func() { s.Notify() })
	defer timer.Stop()

	for s.woken == start && !s.cancelled.Load() {
		s.cond.Wait()
	}
}
