package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestProfilerReportsTileThroughput(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	stats := StreamingStats{Loaded: 4, Frames: 10}
	var buf bytes.Buffer

	p := NewProfiler(
		WithInterval(2*time.Second),
		WithStatsSource(func() StreamingStats { return stats }),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	p.now = clock.now
	p.lastTime = clock.t

	clock.t = clock.t.Add(time.Second)
	if p.Tick() {
		t.Fatal("Tick() logged before the interval elapsed")
	}

	stats = StreamingStats{Loaded: 12, Failed: 1, Queued: 3, Running: 2, Frames: 30}
	clock.t = clock.t.Add(time.Second)
	if !p.Tick() {
		t.Fatal("Tick() did not log after the interval elapsed")
	}

	r := p.Last()
	if r.TPS != 1 {
		t.Errorf("TPS = %v, want 1", r.TPS)
	}
	if r.TilesPerSecond != 4 {
		t.Errorf("TilesPerSecond = %v, want 4", r.TilesPerSecond)
	}
	if r.FPS != 10 {
		t.Errorf("FPS = %v, want 10", r.FPS)
	}
	if r.Stats.Failed != 1 || r.Stats.Running != 2 {
		t.Errorf("Stats = %+v, want 1 failed and 2 running", r.Stats)
	}
	if !strings.Contains(buf.String(), "[Profiler]") || !strings.Contains(buf.String(), "tiles_loaded=12") {
		t.Errorf("log output = %q, want a [Profiler] record with tiles_loaded=12", buf.String())
	}

	// the next interval starts from the last snapshot
	clock.t = clock.t.Add(2 * time.Second)
	p.Tick()
	if r := p.Last(); r.TilesPerSecond != 0 {
		t.Errorf("TilesPerSecond without new tiles = %v, want 0", r.TilesPerSecond)
	}
}
