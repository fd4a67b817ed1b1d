package config

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/adapter"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer"
)

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *Config) error {
	if err := validateViewer(&cfg.Viewer); err != nil {
		return err
	}
	if err := validateAdapter(&cfg.Adapter); err != nil {
		return err
	}
	if err := validatePanorama(cfg.Panorama); err != nil {
		return fmt.Errorf("panorama validation failed: %w", err)
	}
	return nil
}

func validateViewer(v *ViewerConfig) error {
	if v.MinFov == 0 {
		v.MinFov = 30
	}
	if v.MaxFov == 0 {
		v.MaxFov = 90
	}
	if v.MinFov <= 0 || v.MaxFov >= 180 || v.MinFov > v.MaxFov {
		return fmt.Errorf("viewer fov range must satisfy 0 < min_fov <= max_fov < 180, got %v-%v", v.MinFov, v.MaxFov)
	}

	if v.Zoom == nil {
		zoom := float32(50)
		v.Zoom = &zoom
	}
	if *v.Zoom < 0 || *v.Zoom > 100 {
		return fmt.Errorf("viewer.zoom must be within [0, 100], got %v", *v.Zoom)
	}

	if v.TickRate < 0 {
		return fmt.Errorf("viewer.tick_rate must be >= 0")
	}
	if v.TickRate == 0 {
		v.TickRate = 60 // default
	}
	if v.FrameLimit < 0 {
		return fmt.Errorf("viewer.frame_limit must be >= 0")
	}
	if v.FrameLimit == 0 {
		v.FrameLimit = 60 // default
	}

	if v.TransitionMS == nil {
		ms := 500
		v.TransitionMS = &ms
	}
	if *v.TransitionMS < 0 {
		return fmt.Errorf("viewer.transition_ms must be >= 0")
	}

	if _, ok := renderer.ParseBackendType(v.Renderer); !ok {
		return fmt.Errorf("viewer.renderer must be one of headless, wgpu, got %q", v.Renderer)
	}
	return nil
}

func validateAdapter(a *AdapterConfig) error {
	if a.Resolution == 0 {
		a.Resolution = adapter.DefaultResolution
	}
	if !common.IsPowerOfTwo(a.Resolution) {
		return fmt.Errorf("adapter.resolution must be a power of two, got %d", a.Resolution)
	}

	if a.Concurrency < 0 {
		return fmt.Errorf("adapter.concurrency must be >= 0")
	}
	if a.Concurrency == 0 {
		a.Concurrency = queue.DefaultConcurrency
	}

	// Booleans defaulting to true
	if a.ShowErrorTile == nil {
		show := true
		a.ShowErrorTile = &show
	}
	if a.BaseBlur == nil {
		blur := true
		a.BaseBlur = &blur
	}
	return nil
}

// validatePanorama only checks what the adapter cannot, tile layout constraints are checked when the panorama is loaded.
func validatePanorama(p PanoramaConfig) error {
	if p.TileURL == "" {
		return fmt.Errorf("panorama.tile_url is required")
	}
	if !strings.Contains(p.TileURL, "{col}") || !strings.Contains(p.TileURL, "{row}") {
		return fmt.Errorf("panorama.tile_url must contain {col} and {row}, got %q", p.TileURL)
	}
	if p.Width <= 0 || p.Cols <= 0 || p.Rows <= 0 {
		return fmt.Errorf("panorama width, cols and rows must be > 0")
	}

	if pd := p.BasePanoData; pd != nil {
		if p.BaseURL == "" {
			return fmt.Errorf("panorama.base_pano_data requires base_url")
		}
		if pd.FullWidth <= 0 || pd.FullHeight <= 0 || pd.CroppedWidth <= 0 || pd.CroppedHeight <= 0 {
			return fmt.Errorf("panorama.base_pano_data sizes must be > 0")
		}
	}
	return nil
}
