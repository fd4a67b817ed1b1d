// Package config loads the YAML configuration of a panorama viewer.
package config

import (
	"fmt"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine"
	"github.com/Carmen-Shannon/oxy-pano/engine/adapter"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer"
	"gopkg.in/yaml.v3"
)

// Config represents the complete viewer configuration
type Config struct {
	Viewer   ViewerConfig   `yaml:"viewer"`
	Adapter  AdapterConfig  `yaml:"adapter"`
	Panorama PanoramaConfig `yaml:"panorama"`
}

// ViewerConfig contains camera, loop and transport settings
type ViewerConfig struct {
	MinFov          float32           `yaml:"min_fov"`   // degrees at zoom 100 (default: 30)
	MaxFov          float32           `yaml:"max_fov"`   // degrees at zoom 0 (default: 90)
	Zoom            *float32          `yaml:"zoom"`      // 0-100 (default: 50)
	Yaw             float64           `yaml:"yaw"`       // radians
	Pitch           float64           `yaml:"pitch"`     // radians
	TickRate        float64           `yaml:"tick_rate"` // ticks per second (default: 60)
	FrameLimit      float64           `yaml:"frame_limit"`
	TransitionMS    *int              `yaml:"transition_ms"`
	Profiling       bool              `yaml:"profiling"`
	Renderer        string            `yaml:"renderer"` // headless, wgpu
	RequestHeaders  map[string]string `yaml:"request_headers"`
	WithCredentials bool              `yaml:"with_credentials"`
}

// AdapterConfig contains tile streaming settings
type AdapterConfig struct {
	Resolution        int   `yaml:"resolution"`
	ShowErrorTile     *bool `yaml:"show_error_tile,omitempty"` // default: true
	BaseBlur          *bool `yaml:"base_blur,omitempty"`       // default: true
	Concurrency       int   `yaml:"concurrency"`
	NearestTilesFirst bool  `yaml:"nearest_tiles_first"`
}

// PanoramaConfig describes the panorama to show
type PanoramaConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Width        int           `yaml:"width"`
	Cols         int           `yaml:"cols"`
	Rows         int           `yaml:"rows"`
	TileURL      string        `yaml:"tile_url"` // template with {col} and {row}
	BasePanoData *PanoDataSpec `yaml:"base_pano_data,omitempty"`
}

// PanoDataSpec describes a cropped base image
type PanoDataSpec struct {
	FullWidth     int `yaml:"full_width"`
	FullHeight    int `yaml:"full_height"`
	CroppedWidth  int `yaml:"cropped_width"`
	CroppedHeight int `yaml:"cropped_height"`
	CroppedX      int `yaml:"cropped_x"`
	CroppedY      int `yaml:"cropped_y"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration data
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// TiledPanorama builds the adapter panorama. The tile URL template is expanded per tile.
func (c *Config) TiledPanorama() *adapter.Panorama {
	p := &adapter.Panorama{
		BaseURL: c.Panorama.BaseURL,
		Width:   c.Panorama.Width,
		Cols:    c.Panorama.Cols,
		Rows:    c.Panorama.Rows,
		TileURL: TileURLFunc(c.Panorama.TileURL),
	}
	if pd := c.Panorama.BasePanoData; pd != nil {
		p.BasePanoData = &adapter.PanoData{
			FullWidth:     pd.FullWidth,
			FullHeight:    pd.FullHeight,
			CroppedWidth:  pd.CroppedWidth,
			CroppedHeight: pd.CroppedHeight,
			CroppedX:      pd.CroppedX,
			CroppedY:      pd.CroppedY,
		}
	}
	return p
}

// TileURLFunc expands {col} and {row} in template.
func TileURLFunc(template string) func(col, row int) string {
	return func(col, row int) string {
		return strings.NewReplacer("{col}", strconv.Itoa(col), "{row}", strconv.Itoa(row)).Replace(template)
	}
}

// EngineOptions translates the configuration into engine options. Call Validate first.
func (c *Config) EngineOptions() ([]engine.EngineBuilderOption, error) {
	backend, _ := renderer.ParseBackendType(c.Viewer.Renderer)

	loaderOptions := []loader.LoaderBuilderOption{loader.WithDefaultHeaders(c.Viewer.RequestHeaders)}
	if c.Viewer.WithCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		loaderOptions = append(loaderOptions, loader.WithCredentials(jar))
	}

	adapterOptions := []adapter.AdapterBuilderOption{
		adapter.WithResolution(c.Adapter.Resolution),
		adapter.WithShowErrorTile(*c.Adapter.ShowErrorTile),
		adapter.WithBaseBlur(*c.Adapter.BaseBlur),
		adapter.WithConcurrency(c.Adapter.Concurrency),
	}
	if c.Adapter.NearestTilesFirst {
		adapterOptions = append(adapterOptions, adapter.WithNearestTilesFirst())
	}

	return []engine.EngineBuilderOption{
		engine.WithTickRate(c.Viewer.TickRate),
		engine.WithRenderFrameLimit(c.Viewer.FrameLimit),
		engine.WithTransitionDuration(time.Duration(*c.Viewer.TransitionMS) * time.Millisecond),
		engine.WithProfiling(c.Viewer.Profiling),
		engine.WithRendererBackend(backend),
		engine.WithCameraOptions(
			camera.WithFovRange(c.Viewer.MinFov, c.Viewer.MaxFov),
			camera.WithZoom(*c.Viewer.Zoom),
			camera.WithPosition(c.Viewer.Yaw, c.Viewer.Pitch),
		),
		engine.WithLoaderOptions(loaderOptions...),
		engine.WithAdapterOptions(adapterOptions...),
	}, nil
}
