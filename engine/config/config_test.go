package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalYAML = `
panorama:
  width: 1024
  cols: 4
  rows: 2
  tile_url: "https://tiles.example/{col}_{row}.jpg"
`

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Viewer.MinFov != 30 || cfg.Viewer.MaxFov != 90 {
		t.Errorf("fov range = %v-%v, want 30-90", cfg.Viewer.MinFov, cfg.Viewer.MaxFov)
	}
	if *cfg.Viewer.Zoom != 50 {
		t.Errorf("zoom = %v, want 50", *cfg.Viewer.Zoom)
	}
	if cfg.Viewer.TickRate != 60 || cfg.Viewer.FrameLimit != 60 {
		t.Errorf("tick rate = %v frame limit = %v, want 60 and 60", cfg.Viewer.TickRate, cfg.Viewer.FrameLimit)
	}
	if *cfg.Viewer.TransitionMS != 500 {
		t.Errorf("transition_ms = %d, want 500", *cfg.Viewer.TransitionMS)
	}
	if cfg.Adapter.Resolution != 64 || cfg.Adapter.Concurrency != 4 {
		t.Errorf("resolution = %d concurrency = %d, want 64 and 4", cfg.Adapter.Resolution, cfg.Adapter.Concurrency)
	}
	if !*cfg.Adapter.ShowErrorTile || !*cfg.Adapter.BaseBlur {
		t.Error("show_error_tile and base_blur should default to true")
	}
}

func TestParseKeepsExplicitValues(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
viewer:
  zoom: 0
  transition_ms: 0
  renderer: wgpu
  request_headers:
    Authorization: Bearer abc
adapter:
  resolution: 32
  show_error_tile: false
  base_blur: false
  nearest_tiles_first: true
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if *cfg.Viewer.Zoom != 0 || *cfg.Viewer.TransitionMS != 0 {
		t.Errorf("zoom = %v transition_ms = %d, want 0 and 0", *cfg.Viewer.Zoom, *cfg.Viewer.TransitionMS)
	}
	if *cfg.Adapter.ShowErrorTile || *cfg.Adapter.BaseBlur {
		t.Error("explicit false booleans were overridden")
	}
	if cfg.Viewer.RequestHeaders["Authorization"] != "Bearer abc" {
		t.Errorf("request_headers = %v", cfg.Viewer.RequestHeaders)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions() error = %v", err)
	}
	if len(opts) == 0 {
		t.Error("EngineOptions() returned no options")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing tile url", "panorama: {width: 1024, cols: 4, rows: 2}", "tile_url is required"},
		{"tile url without placeholders", "panorama: {width: 1024, cols: 4, rows: 2, tile_url: tile.jpg}", "{col} and {row}"},
		{"no size", "panorama: {tile_url: '{col}/{row}.jpg'}", "must be > 0"},
		{"resolution", minimalYAML + "adapter: {resolution: 48}", "power of two"},
		{"renderer", minimalYAML + "viewer: {renderer: vulkan}", "viewer.renderer"},
		{"zoom", minimalYAML + "viewer: {zoom: 120}", "viewer.zoom"},
		{"fov", minimalYAML + "viewer: {min_fov: 100, max_fov: 90}", "fov range"},
		{"pano data without base", minimalYAML[:len(minimalYAML)-1] + "\n  base_pano_data: {full_width: 2, full_height: 1, cropped_width: 2, cropped_height: 1}\n", "requires base_url"},
		{"malformed", "panorama: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadAndTiledPanorama(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panorama.yaml")
	data := minimalYAML + `  base_url: "https://tiles.example/base.jpg"
  base_pano_data:
    full_width: 1024
    full_height: 512
    cropped_width: 1024
    cropped_height: 256
    cropped_y: 128
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := cfg.TiledPanorama()
	if got := p.TileURL(3, 1); got != "https://tiles.example/3_1.jpg" {
		t.Errorf("TileURL(3, 1) = %q", got)
	}
	if p.BasePanoData == nil || p.BasePanoData.CroppedY != 128 || p.BasePanoData.CroppedHeight != 256 {
		t.Errorf("BasePanoData = %+v", p.BasePanoData)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file returned nil error")
	}
}
