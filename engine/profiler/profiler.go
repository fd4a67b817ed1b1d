package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// StreamingStats is a snapshot of the tile streaming counters the profiler reports on.
// Loaded and Failed are cumulative, the other fields are current values.
type StreamingStats struct {
	// Loaded is the number of tile images decoded since startup.
	Loaded int
	// Failed is the number of tile images that failed to load since startup.
	Failed int
	// InFlight is the number of image requests currently running.
	InFlight int
	// Queued is the number of tasks tracked by the tile queue, running ones included.
	Queued int
	// Running is the number of tile tasks currently executing.
	Running int
	// TexturesLive is the number of textures currently held by the renderer backend.
	TexturesLive int
	// TextureBytes is the number of pixel bytes uploaded since startup.
	TextureBytes int64
	// Frames is the number of frames produced since startup.
	Frames int64
}

// StatsSource returns the current streaming counters.
type StatsSource func() StreamingStats

// Report is the result of one profiling interval.
type Report struct {
	// TPS is the number of host ticks per second.
	TPS float64
	// FPS is the number of frames produced per second.
	FPS float64
	// TilesPerSecond is the number of tiles loaded per second.
	TilesPerSecond float64
	// Stats is the snapshot taken at the end of the interval.
	Stats StreamingStats
	// HeapMB is the live heap size.
	HeapMB float64
	// SysMB is the memory obtained from the OS.
	SysMB float64
	// GCCount is the number of completed GC cycles.
	GCCount uint32
}

// Profiler tracks tick rate, tile throughput and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	tickCount      int
	lastTime       time.Time
	lastStats      StreamingStats
	updateInterval time.Duration
	memStats       runtime.MemStats
	source         StatsSource
	last           Report
	logger         *slog.Logger
	now            func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		source:         func() StreamingStats { return StreamingStats{} },
		logger:         common.Logger(),
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	p.lastStats = p.source()
	return p
}

// Tick should be called once per host tick.
// Logs streaming statistics when the update interval has elapsed.
// Statistics include: tick rate, frame rate, tiles loaded per second, failures, queue depth, texture memory and heap usage.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.tickCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	stats := p.source()
	seconds := elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		TPS:            float64(p.tickCount) / seconds,
		FPS:            float64(stats.Frames-p.lastStats.Frames) / seconds,
		TilesPerSecond: float64(stats.Loaded-p.lastStats.Loaded) / seconds,
		Stats:          stats,
		HeapMB:         float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:          float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:        p.memStats.NumGC,
	}

	p.logger.Info("[Profiler]",
		"tps", r.TPS,
		"fps", r.FPS,
		"tiles_per_sec", r.TilesPerSecond,
		"tiles_loaded", stats.Loaded,
		"tiles_failed", stats.Failed,
		"in_flight", stats.InFlight,
		"queued", stats.Queued,
		"running", stats.Running,
		"textures_live", stats.TexturesLive,
		"texture_mb", float64(stats.TextureBytes)/1024/1024,
		"heap_mb", r.HeapMB,
		"gc", r.GCCount,
		"sys_mb", r.SysMB,
	)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastStats = stats
	p.last = r
	return true
}

// Last retrieves the report of the most recent interval.
//
// Returns:
//   - Report: the last report, zero before the first interval elapsed
func (p *Profiler) Last() Report {
	return p.last
}
