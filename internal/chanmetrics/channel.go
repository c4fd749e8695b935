package chanmetrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/thisisnitish/gochan/asyncpool"
	"github.com/thisisnitish/gochan/channel"
)

// ChannelMetrics are the counters InstrumentedChannel records.
type ChannelMetrics struct {
	sent      metric.Int64Counter
	received  metric.Int64Counter
	closed    metric.Int64Counter
	bufferLen metric.Int64UpDownCounter
}

// NewChannelMetrics creates the counter instruments on meter.
func NewChannelMetrics(meter metric.Meter) (*ChannelMetrics, error) {
	sent, err := meter.Int64Counter("gochan.channel.sent")
	if err != nil {
		return nil, err
	}

	received, err := meter.Int64Counter("gochan.channel.received")
	if err != nil {
		return nil, err
	}

	closed, err := meter.Int64Counter("gochan.channel.closed")
	if err != nil {
		return nil, err
	}

	bufferLen, err := meter.Int64UpDownCounter("gochan.channel.buffer_len")
	if err != nil {
		return nil, err
	}

	return &ChannelMetrics{sent: sent, received: received, closed: closed, bufferLen: bufferLen}, nil
}

// InstrumentedChannel decorates a channel.Channel[T], recording
// ChannelMetrics counters on every operation while delegating all
// behavior to the wrapped channel.
type InstrumentedChannel[T any] struct {
	ch *channel.Channel[T]
	m  *ChannelMetrics
}

// NewInstrumentedChannel wraps ch with m.
func NewInstrumentedChannel[T any](ch *channel.Channel[T], m *ChannelMetrics) *InstrumentedChannel[T] {
	return &InstrumentedChannel[T]{ch: ch, m: m}
}

// Channel returns the underlying channel.Channel[T].
func (ic *InstrumentedChannel[T]) Channel() *channel.Channel[T] { return ic.ch }

func (ic *InstrumentedChannel[T]) Send(v T) error {
	err := ic.ch.Send(v)
	if err == nil {
		ic.m.sent.Add(context.Background(), 1)
		ic.recordBufferGrow()
	}
	return err
}

func (ic *InstrumentedChannel[T]) Receive() (T, bool) {
	v, ok := ic.ch.Receive()
	if ok {
		ic.m.received.Add(context.Background(), 1)
		ic.recordBufferShrink()
	}
	return v, ok
}

func (ic *InstrumentedChannel[T]) TrySend(v T) bool {
	ok := ic.ch.TrySend(v)
	if ok {
		ic.m.sent.Add(context.Background(), 1)
		ic.recordBufferGrow()
	}
	return ok
}

func (ic *InstrumentedChannel[T]) TryReceive() (T, bool) {
	v, ok := ic.ch.TryReceive()
	if ok {
		ic.m.received.Add(context.Background(), 1)
		ic.recordBufferShrink()
	}
	return v, ok
}

// recordBufferGrow/recordBufferShrink track gochan.channel.buffer_len for
// buffered channels only: an unbuffered channel's slot is a handoff, not a
// queue depth worth reporting.
func (ic *InstrumentedChannel[T]) recordBufferGrow() {
	if ic.ch.Cap() > 0 {
		ic.m.bufferLen.Add(context.Background(), 1)
	}
}

func (ic *InstrumentedChannel[T]) recordBufferShrink() {
	if ic.ch.Cap() > 0 {
		ic.m.bufferLen.Add(context.Background(), -1)
	}
}

func (ic *InstrumentedChannel[T]) AsyncSend(pool *asyncpool.Pool, v T) *asyncpool.Future[struct{}] {
	return ic.ch.AsyncSend(pool, v)
}

func (ic *InstrumentedChannel[T]) AsyncReceive(pool *asyncpool.Pool) *asyncpool.Future[channel.Received[T]] {
	return ic.ch.AsyncReceive(pool)
}

// Close closes the underlying channel. IsClosed never reverts
// true->false, so this counter fires at most once per channel.
func (ic *InstrumentedChannel[T]) Close() {
	wasClosed := ic.ch.IsClosed()
	ic.ch.Close()
	if !wasClosed {
		ic.m.closed.Add(context.Background(), 1)
	}
}

func (ic *InstrumentedChannel[T]) IsClosed() bool      { return ic.ch.IsClosed() }
func (ic *InstrumentedChannel[T]) Empty() bool          { return ic.ch.Empty() }
func (ic *InstrumentedChannel[T]) IsReceiveReady() bool { return ic.ch.IsReceiveReady() }
