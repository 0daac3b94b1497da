// Package telemetry collects hierarchical timings for a reconciliation run:
// loading each source file, parsing, replaying the ledger and rendering sinks.
//
// Collectors travel through context so instrumented code never needs to know
// whether timing is enabled:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.StartTimer(ctx, "ledger.reconcile")
//	// ... work ...
//	timer.End()
//
//	collector.Report(os.Stderr, nil)
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/cointax/output"
)

type collectorKey struct{}

type rootTimerKey struct{}

// Collector gathers timers and reports them.
type Collector interface {
	// Start begins timing an operation under the most recently started,
	// still running timer.
	Start(name string) Timer

	// Report writes the collected timings to w. Styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, collector)
}

// FromContext returns the collector in ctx, or a collector that does nothing.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithRootTimer stores a command-level timer; StartTimer nests under it.
func WithRootTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, rootTimerKey{}, timer)
}

// StartTimer starts a timer nested under the root timer in ctx if one is set,
// or directly on the collector otherwise.
func StartTimer(ctx context.Context, name string) Timer {
	if root, ok := ctx.Value(rootTimerKey{}).(Timer); ok {
		return root.Child(name)
	}
	return FromContext(ctx).Start(name)
}
