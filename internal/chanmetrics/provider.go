// Package chanmetrics instruments channel.Channel and selectx.Select
// with OpenTelemetry counters. It never pushes metrics off-process: it
// uses a sdkmetric.ManualReader that the caller drains locally (e.g.
// from cmd/gochandemo), since cross-process export is out of scope
// for this module.
package chanmetrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Provider owns the meter provider and the manual reader used to
// collect metrics locally.
type Provider struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewProvider constructs a Provider with a fresh ManualReader.
func NewProvider() *Provider {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return &Provider{reader: reader, provider: mp}
}

// Meter returns a metric.Meter scoped to name.
func (p *Provider) Meter(name string) metric.Meter {
	return p.provider.Meter(name)
}

// Collect gathers the current resource metrics snapshot from the
// manual reader.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := p.reader.Collect(ctx, &rm)
	return rm, err
}

// Shutdown releases provider resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
