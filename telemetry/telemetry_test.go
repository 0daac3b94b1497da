package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/cointax/output"
)

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("test")
	timer.Child("child").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}

func TestFromContextReturnsNoOpWhenMissing(t *testing.T) {
	collector := FromContext(context.Background())
	_, ok := collector.(noOpCollector)
	assert.True(t, ok, "expected noOpCollector, got %T", collector)
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	retrieved, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, retrieved == collector)
}

func TestTimingCollectorHierarchical(t *testing.T) {
	collector := NewTimingCollector()

	root := collector.Start("gains")
	load := collector.Start("loader.load")
	time.Sleep(2 * time.Millisecond)
	load.End()
	replay := root.Child("ledger.reconcile")
	replay.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	out := buf.String()

	assert.Contains(t, out, "gains: ")
	assert.Contains(t, out, "├─ loader.load: ")
	assert.Contains(t, out, "└─ ledger.reconcile: ")
	assert.Contains(t, out, "ms")
}

func TestStartTimerNestsUnderRoot(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	root := collector.Start("summary")
	ctx = WithRootTimer(ctx, root)

	StartTimer(ctx, "Level 2").End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasPrefix(lines[1], "└─ Level 2"))
}

func TestTimingCollectorMultipleRoots(t *testing.T) {
	collector := NewTimingCollector()
	collector.Start("first").End()
	collector.Start("second").End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Contains(t, buf.String(), "first: ")
	assert.Contains(t, buf.String(), "second: ")
}

func TestTimingCollectorStyledReport(t *testing.T) {
	collector := NewTimingCollector()
	root := collector.Start("root")
	root.Child("child").End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, output.NewStyles(&buf))
	assert.Contains(t, buf.String(), "child")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{1 * time.Millisecond, "1ms"},
		{999 * time.Millisecond, "999ms"},
		{1 * time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration))
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}
