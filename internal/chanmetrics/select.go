package chanmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/thisisnitish/gochan/selectx"
)

// SelectMetrics is the single counter InstrumentedSelect records,
// tagged by outcome.
type SelectMetrics struct {
	outcome metric.Int64Counter
}

// NewSelectMetrics creates the outcome counter on meter.
func NewSelectMetrics(meter metric.Meter) (*SelectMetrics, error) {
	outcome, err := meter.Int64Counter("gochan.select.outcome")
	if err != nil {
		return nil, err
	}

	return &SelectMetrics{outcome: outcome}, nil
}

// InstrumentedSelect decorates a selectx.Select[T], recording the
// outcome of every Run/RunBlocking call: "case", "default", or
// "no_selection".
type InstrumentedSelect[T any] struct {
	s *selectx.Select[T]
	m *SelectMetrics
}

// NewInstrumentedSelect wraps s with m.
func NewInstrumentedSelect[T any](s *selectx.Select[T], m *SelectMetrics) *InstrumentedSelect[T] {
	return &InstrumentedSelect[T]{s: s, m: m}
}

// Select returns the underlying selectx.Select[T].
func (is *InstrumentedSelect[T]) Select() *selectx.Select[T] { return is.s }

func (is *InstrumentedSelect[T]) outcomeOf(selected bool) string {
	if !selected {
		return "no_selection"
	}
	if is.s.SelectedIndex() == len(is.s.Cases()) {
		return "default"
	}
	return "case"
}

func (is *InstrumentedSelect[T]) record(outcome string) {
	is.m.outcome.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Run delegates to the wrapped Select and records the outcome.
func (is *InstrumentedSelect[T]) Run() bool {
	ok := is.s.Run()
	is.record(is.outcomeOf(ok))
	return ok
}

// RunBlocking delegates to the wrapped Select and records the
// outcome.
func (is *InstrumentedSelect[T]) RunBlocking(timeout time.Duration) (int, bool) {
	idx, ok := is.s.RunBlocking(timeout)
	is.record(is.outcomeOf(ok))
	return idx, ok
}
