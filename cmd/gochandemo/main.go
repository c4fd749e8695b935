// Command gochandemo wires channel, selectx, asyncpool, obslog, and
// chanmetrics together into a small fan-in pipeline: two producers
// feed buffered channels, a select loop fans them into one
// instrumented output channel, and a consumer drains it while the
// number of metric instruments per scope is logged periodically. It is an external
// collaborator exercising the core channel/selectx packages from the
// outside — neither of those packages depends on it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thisisnitish/gochan/asyncpool"
	"github.com/thisisnitish/gochan/channel"
	"github.com/thisisnitish/gochan/gochanconfig"
	"github.com/thisisnitish/gochan/internal/chanmetrics"
	"github.com/thisisnitish/gochan/internal/obslog"
	"github.com/thisisnitish/gochan/selectx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := obslog.New("gochandemo")

	metricsProvider := chanmetrics.NewProvider()
	defer metricsProvider.Shutdown(context.Background())

	chanMetrics, err := chanmetrics.NewChannelMetrics(metricsProvider.Meter("gochandemo"))
	if err != nil {
		log.Error("failed to build channel metrics", err)
		os.Exit(1)
	}

	selectMetrics, err := chanmetrics.NewSelectMetrics(metricsProvider.Meter("gochandemo"))
	if err != nil {
		log.Error("failed to build select metrics", err)
		os.Exit(1)
	}

	poolCfg := gochanconfig.NewDefaultPoolConfig()
	pool := asyncpool.New(poolCfg.Workers, poolCfg.QueueSize)
	defer pool.Stop()

	left := channel.New[int](8)
	right := channel.New[int](8)
	out := chanmetrics.NewInstrumentedChannel(channel.New[int](16), chanMetrics)

	log.Info("starting demo pipeline", "left_cap", left.Cap(), "right_cap", right.Cap())

	go produce(ctx, left, 0, 2)
	go produce(ctx, right, 1, 2)
	go fanIn(ctx, left, right, out, selectMetrics, log)

	go reportMetrics(ctx, metricsProvider, log)

	consume(ctx, out, log)
}

func produce(ctx context.Context, ch *channel.Channel[int], start, step int) {
	defer ch.Close()

	for i := start; ; i += step {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := ch.Send(i); err != nil {
			return
		}

		time.Sleep(50 * time.Millisecond)
	}
}

func fanIn(ctx context.Context, left, right *channel.Channel[int], out *chanmetrics.InstrumentedChannel[int], m *chanmetrics.SelectMetrics, log *obslog.Logger) {
	defer out.Close()

	sel := chanmetrics.NewInstrumentedSelect(
		selectx.New[int]().Receive(left).Receive(right).Default(),
		m,
	)

	for {
		if ctx.Err() != nil {
			log.Info("fan-in stopping, context done")
			return
		}

		if !sel.Run() {
			continue
		}

		raw := sel.Select()
		idx := raw.SelectedIndex()

		if idx == len(raw.Cases()) {
			// Default case: nothing ready, yield briefly.
			time.Sleep(5 * time.Millisecond)
			continue
		}

		c := raw.Cases()[idx]
		if !c.Success() {
			continue
		}

		if err := out.Send(c.RecvValue()); err != nil {
			log.Error("fan-in send to output channel failed", err)
			return
		}
	}
}

func consume(ctx context.Context, out *chanmetrics.InstrumentedChannel[int], log *obslog.Logger) {
	for {
		v, ok := out.Receive()
		if !ok {
			log.Info("output channel drained, exiting")
			return
		}

		log.Debug("received value", "value", v)

		if ctx.Err() != nil {
			return
		}
	}
}

func reportMetrics(ctx context.Context, p *chanmetrics.Provider, log *obslog.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm, err := p.Collect(ctx)
			if err != nil {
				log.Error("failed to collect metrics", err)
				continue
			}

			for _, sm := range rm.ScopeMetrics {
				log.Info("metrics", "scope", sm.Scope.Name, "instrument_count", len(sm.Metrics))
			}
		}
	}
}
