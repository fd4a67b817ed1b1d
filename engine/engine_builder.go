package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/adapter"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables streaming statistics output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerInterval sets how often streaming statistics are logged.
//
// Parameters:
//   - interval: the logging interval, ignored if not positive (default 1s)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if interval > 0 {
			e.profilerInterval = interval
		}
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit sets the render frame rate cap in frames per second.
// Pass 0 to uncap the render loop.
//
// Parameters:
//   - fps: maximum render frames per second (default 60, 0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithTransitionDuration sets how long a new panorama takes to fade in.
// Pass 0 to switch panoramas immediately.
//
// Parameters:
//   - d: the fade duration (default 500ms)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTransitionDuration(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.transitionDuration = max(0, d)
	}
}

// WithRendererBackend selects the renderer backend.
//
// Parameters:
//   - backendType: the backend (default headless)
//   - options: options passed to renderer.NewRenderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererBackend(backendType renderer.RendererBackendType, options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = backendType
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithCameraOptions configures the camera the engine creates.
//
// Parameters:
//   - options: options passed to camera.NewCamera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCameraOptions(options ...camera.CameraBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.cameraOptions = append(e.cameraOptions, options...)
	}
}

// WithCameraControllerOptions configures the controller moving the camera every tick.
//
// Parameters:
//   - options: options passed to camera.NewCameraController
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCameraControllerOptions(options ...camera.CameraControllerOption) EngineBuilderOption {
	return func(e *engine) {
		e.controllerOptions = append(e.controllerOptions, options...)
	}
}

// WithLoaderOptions configures the image loader shared by base images and tiles.
//
// Parameters:
//   - options: options passed to loader.NewLoader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoaderOptions(options ...loader.LoaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.loaderOptions = append(e.loaderOptions, options...)
	}
}

// WithAdapterOptions configures the panorama adapter.
//
// Parameters:
//   - options: options passed to adapter.NewAdapter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAdapterOptions(options ...adapter.AdapterBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.adapterOptions = append(e.adapterOptions, options...)
	}
}

// WithLogger sets the logger of the engine and of every collaborator it creates.
//
// Parameters:
//   - logger: the logger (default common.Logger())
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
