package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Ignored by the headless backend.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithSampler overrides the sampler shared by every tile texture.
// Zero fields keep the linear clamp-to-edge defaults.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the sampler option to a renderer
func WithSampler(sampler common.SamplerStagingData) RendererBuilderOption {
	return func(r *renderer) {
		r.sampler = sampler
	}
}

// WithLogger sets the logger of the renderer. Defaults to common.Logger().
//
// Parameters:
//   - logger: the logger, nil keeps the default
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
