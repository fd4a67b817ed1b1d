package adapter

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
)

const (
	// DefaultResolution is the default number of longitude segments of the sphere.
	DefaultResolution = 64
	// DefaultMaxTextureWidth is the widest base image uploaded without being redrawn.
	DefaultMaxTextureWidth = 8192
	// DefaultMaxCanvasWidth is the width base images are scaled down to when redrawn.
	DefaultMaxCanvasWidth = 4096
	// DefaultSphereRadius is the radius of the sphere mesh at scale 1.
	DefaultSphereRadius = 10
)

// Config is the configuration of an adapter. It does not change once the adapter is built.
type Config struct {
	// Resolution is the number of longitude segments of the sphere, a power of two.
	Resolution int
	// ShowErrorTile shows a warning placeholder on tiles that fail to load.
	ShowErrorTile bool
	// BaseBlur blurs the base image.
	BaseBlur bool
	// Concurrency is the number of tiles loaded at once.
	Concurrency int
	// RequestHeaders are sent with every image request.
	RequestHeaders map[string]string
	// RequestHeadersFunc computes the headers of a request from its URL. Takes precedence over RequestHeaders.
	RequestHeadersFunc func(url string) map[string]string
	// NearestTilesFirst loads the tiles closest to the look direction first.
	// By default the queue serves the largest angle first.
	NearestTilesFirst bool
	// MaxTextureWidth is the widest base image uploaded as-is.
	MaxTextureWidth int
	// MaxCanvasWidth is the width base images are scaled down to when they are redrawn.
	MaxCanvasWidth int
	// SphereRadius is the radius of meshes built with scale 1.
	SphereRadius float32
}

// DefaultConfig returns the configuration used when no option is given.
//
// Returns:
//   - Config: resolution 64, error tiles and base blur on, 4 concurrent loads
func DefaultConfig() Config {
	return Config{
		Resolution:      DefaultResolution,
		ShowErrorTile:   true,
		BaseBlur:        true,
		Concurrency:     queue.DefaultConcurrency,
		MaxTextureWidth: DefaultMaxTextureWidth,
		MaxCanvasWidth:  DefaultMaxCanvasWidth,
		SphereRadius:    DefaultSphereRadius,
	}
}

// AdapterBuilderOption is a functional option for configuring an Adapter via NewAdapter.
type AdapterBuilderOption func(*adapter)

// WithConfig replaces the whole configuration. Options applied after it still override single fields.
//
// Parameters:
//   - c: the configuration
//
// Returns:
//   - AdapterBuilderOption: a function that applies the config option to an adapter
func WithConfig(c Config) AdapterBuilderOption {
	return func(a *adapter) {
		a.config = c
	}
}

// WithResolution sets the number of longitude segments of the sphere.
//
// Parameters:
//   - resolution: a power of two, 64 by default
//
// Returns:
//   - AdapterBuilderOption: a function that applies the resolution option to an adapter
func WithResolution(resolution int) AdapterBuilderOption {
	return func(a *adapter) {
		a.config.Resolution = resolution
	}
}

// WithShowErrorTile toggles the placeholder shown on tiles that fail to load.
//
// Parameters:
//   - show: true by default
//
// Returns:
//   - AdapterBuilderOption: a function that applies the error tile option to an adapter
func WithShowErrorTile(show bool) AdapterBuilderOption {
	return func(a *adapter) {
		a.config.ShowErrorTile = show
	}
}

// WithBaseBlur toggles the blur applied to the base image.
//
// Parameters:
//   - blur: true by default
//
// Returns:
//   - AdapterBuilderOption: a function that applies the base blur option to an adapter
func WithBaseBlur(blur bool) AdapterBuilderOption {
	return func(a *adapter) {
		a.config.BaseBlur = blur
	}
}

// WithConcurrency sets how many tiles are loaded at once. Ignored when WithQueue is used.
//
// Parameters:
//   - n: the number of concurrent loads, ignored if not positive
//
// Returns:
//   - AdapterBuilderOption: a function that applies the concurrency option to an adapter
func WithConcurrency(n int) AdapterBuilderOption {
	return func(a *adapter) {
		if n > 0 {
			a.config.Concurrency = n
		}
	}
}

// WithRequestHeaders sets headers sent with every base image and tile request.
//
// Parameters:
//   - headers: the headers
//
// Returns:
//   - AdapterBuilderOption: a function that applies the request headers option to an adapter
func WithRequestHeaders(headers map[string]string) AdapterBuilderOption {
	return func(a *adapter) {
		a.config.RequestHeaders = headers
	}
}

// WithRequestHeadersFunc computes the headers of each request from its URL.
//
// Parameters:
//   - fn: builds the headers of a URL
//
// Returns:
//   - AdapterBuilderOption: a function that applies the request headers option to an adapter
func WithRequestHeadersFunc(fn func(url string) map[string]string) AdapterBuilderOption {
	return func(a *adapter) {
		a.config.RequestHeadersFunc = fn
	}
}

// WithNearestTilesFirst makes the queue serve the tiles closest to the look direction first.
//
// Returns:
//   - AdapterBuilderOption: a function that applies the ordering option to an adapter
func WithNearestTilesFirst() AdapterBuilderOption {
	return func(a *adapter) {
		a.config.NearestTilesFirst = true
	}
}

// WithMaxTextureWidth sets the widest base image uploaded without being redrawn.
//
// Parameters:
//   - width: the width in pixels, ignored if not positive
//
// Returns:
//   - AdapterBuilderOption: a function that applies the max texture width option to an adapter
func WithMaxTextureWidth(width int) AdapterBuilderOption {
	return func(a *adapter) {
		if width > 0 {
			a.config.MaxTextureWidth = width
		}
	}
}

// WithMaxCanvasWidth sets the width base images are scaled down to when redrawn.
//
// Parameters:
//   - width: the width in pixels, ignored if not positive
//
// Returns:
//   - AdapterBuilderOption: a function that applies the max canvas width option to an adapter
func WithMaxCanvasWidth(width int) AdapterBuilderOption {
	return func(a *adapter) {
		if width > 0 {
			a.config.MaxCanvasWidth = width
		}
	}
}

// WithSphereRadius sets the radius of meshes built with scale 1.
//
// Parameters:
//   - radius: the radius, ignored if not positive
//
// Returns:
//   - AdapterBuilderOption: a function that applies the radius option to an adapter
func WithSphereRadius(radius float32) AdapterBuilderOption {
	return func(a *adapter) {
		if radius > 0 {
			a.config.SphereRadius = radius
		}
	}
}

// WithLoader sets the image loader used for base images and tiles.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - AdapterBuilderOption: a function that applies the loader option to an adapter
func WithLoader(l loader.Loader) AdapterBuilderOption {
	return func(a *adapter) {
		a.pendingLoader = l
	}
}

// WithQueue sets the queue tile loads are scheduled on. The adapter does not stop a queue it did not create.
//
// Parameters:
//   - q: the queue
//
// Returns:
//   - AdapterBuilderOption: a function that applies the queue option to an adapter
func WithQueue(q queue.Queue) AdapterBuilderOption {
	return func(a *adapter) {
		a.queue = q
	}
}

// WithLogger sets the logger of the adapter. Defaults to common.Logger().
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - AdapterBuilderOption: a function that applies the logger option to an adapter
func WithLogger(logger *slog.Logger) AdapterBuilderOption {
	return func(a *adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}
