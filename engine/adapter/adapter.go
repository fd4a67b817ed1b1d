// Package adapter streams tiled equirectangular panoramas onto a sphere mesh.
//
// A panorama is split in cols x rows tiles. The adapter shows an optional low resolution base image,
// then on every camera position or zoom change works out which tiles are in the view frustum and
// loads them through a bounded priority queue, swapping each loaded tile into the mesh faces it covers.
package adapter

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/events"
	"github.com/Carmen-Shannon/oxy-pano/engine/geometry"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/mesh"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
	"github.com/google/uuid"
)

// Panorama describes one tiled panorama. The full image is Width x Width/2 pixels.
type Panorama struct {
	// BaseURL is the low resolution image shown before tiles load, optional.
	BaseURL string
	// BasePanoData describes how the base image is cropped, optional.
	BasePanoData *PanoData
	// BasePanoDataFunc computes BasePanoData from the decoded base image, optional.
	// Ignored when BasePanoData is set.
	BasePanoDataFunc func(img image.Image) PanoData
	// Width is the width of the full panorama in pixels, must be even.
	Width int
	// Cols is the number of tile columns, a power of two.
	Cols int
	// Rows is the number of tile rows, a power of two.
	Rows int
	// TileURL builds the URL of a tile.
	TileURL func(col, row int) string
}

// PanoData holds the size of a panorama and the region covered by its image.
type PanoData struct {
	FullWidth     int
	FullHeight    int
	CroppedWidth  int
	CroppedHeight int
	CroppedX      int
	CroppedY      int
	PoseHeading   float64
	PosePitch     float64
	PoseRoll      float64
}

// TextureData is the result of LoadTexture, passed back to SetTexture.
type TextureData struct {
	// Panorama is the validated panorama.
	Panorama *Panorama
	// Texture is the base image texture, nil when the panorama has no BaseURL.
	Texture texture.Texture
	// PanoData describes the full tiled panorama.
	PanoData PanoData
}

// Tile identifies one tile of the current panorama.
type Tile struct {
	Col int
	Row int
	// Angle is the angular distance in radians between the tile and the look direction.
	// It is recomputed on every refresh.
	Angle float64
}

// ID returns the tile key, "{col}x{row}".
func (t Tile) ID() string {
	return TileID(t.Col, t.Row)
}

// TileID builds the key of the tile at col, row.
//
// Parameters:
//   - col: the tile column
//   - row: the tile row
//
// Returns:
//   - string: the key, "{col}x{row}"
func TileID(col, row int) string {
	return strconv.Itoa(col) + "x" + strconv.Itoa(row)
}

// ViewerState is the camera state the visibility evaluation reads.
type ViewerState interface {
	ProjectionMatrix() common.Mat4
	// ViewMatrix is the inverse of the camera world matrix.
	ViewMatrix() common.Mat4
	Direction() [3]float32
	// Zoom is in [0, 100].
	Zoom() float32
	// MeshRotation is the XYZ Euler rotation of the panorama mesh container.
	MeshRotation() [3]float32
}

// RenderTarget uploads textures and accepts redraw requests.
type RenderTarget interface {
	RequestRender()
	UploadTexture(tex texture.Texture) error
}

// State is the lifecycle phase of the adapter.
type State int

const (
	// StateUnloaded means no panorama was set, or the adapter was destroyed.
	StateUnloaded State = iota
	// StateBaseTextureShown means a base texture was set on a transition mesh.
	StateBaseTextureShown
	// StateTilesStreaming means tiles are loaded as the camera moves.
	StateTilesStreaming
)

func (s State) String() string {
	switch s {
	case StateBaseTextureShown:
		return "base-texture-shown"
	case StateTilesStreaming:
		return "tiles-streaming"
	default:
		return "unloaded"
	}
}

// Stats holds the streaming counters of an adapter.
type Stats struct {
	// Session identifies the panorama currently streamed.
	Session string
	State   State
	// TilesSeen is the number of tiles enqueued at least once for the current panorama.
	TilesSeen int
	// Queued is the number of tasks tracked by the queue.
	Queued int
	// Running is the number of tasks currently loading.
	Running int
}

// adapterState is the mutable per-panorama state. Guarded by adapter.mu.
type adapterState struct {
	phase    State
	session  string
	panorama *Panorama
	mesh     mesh.Mesh
	layout   *geometry.TileLayout
	colSize  int
	rowSize  int
	// tiles marks tiles enqueued at least once for this panorama.
	tiles        map[string]bool
	baseMaterial material.Material

	// transitionMesh received a base material through SetTexture(..., true).
	transitionMesh     mesh.Mesh
	transitionMaterial material.Material
}

// adapter is the implementation of the Adapter interface.
type adapter struct {
	*equirectangularLoader

	mu     *sync.Mutex
	config Config
	state  adapterState

	viewer     ViewerState
	dispatcher events.Dispatcher
	target     RenderTarget
	queue      queue.Queue
	ownsQueue  bool

	unsubscribePosition events.Unsubscribe
	unsubscribeZoom     events.Unsubscribe

	errorMaterial       material.Material
	errorMaterialBuilds int
	destroyed           bool

	logger *slog.Logger

	// Pre-creation config collected from builder options
	pendingLoader loader.Loader
}

// Adapter streams a tiled equirectangular panorama onto a sphere mesh.
//
// The host loads a panorama with LoadTexture, creates a mesh with CreateMesh and hands both to SetTexture.
// From then on the adapter listens to camera position and zoom events and loads the visible tiles in the background.
// All methods are safe for concurrent use.
type Adapter interface {
	// LoadTexture validates a panorama and loads its base image if it has one.
	// Validation happens before any network access.
	//
	// Parameters:
	//   - ctx: cancels the base image request
	//   - p: the panorama
	//
	// Returns:
	//   - TextureData: the panorama, its base texture and its PanoData
	//   - error: a *common.ViewerError for invalid panoramas, or the base image loading error
	LoadTexture(ctx context.Context, p *Panorama) (TextureData, error)

	// CreateMesh builds the sphere mesh tiles are drawn on.
	//
	// Parameters:
	//   - scale: multiplies the sphere radius, 1 when not positive
	//
	// Returns:
	//   - mesh.Mesh: the mesh, with one empty material slot per face
	CreateMesh(scale float32) mesh.Mesh

	// SetTexture shows a loaded panorama on a mesh.
	// With transition set, the mesh only receives the base texture and the current panorama keeps streaming.
	// Without it, every tile of the previous panorama is cancelled and disposed, and streaming starts on the mesh
	// after a deferred refresh.
	//
	// Parameters:
	//   - m: a mesh created by CreateMesh
	//   - data: the result of LoadTexture
	//   - transition: true while cross-fading from the previous panorama
	//
	// Returns:
	//   - error: error if the adapter was destroyed or data is invalid
	SetTexture(m mesh.Mesh, data TextureData, transition bool) error

	// SetTextureOpacity sets the opacity of the base material of a mesh.
	// The material is transparent when the opacity is below 1.
	//
	// Parameters:
	//   - m: the mesh
	//   - opacity: the opacity in [0, 1]
	SetTextureOpacity(m mesh.Mesh, opacity float32)

	// SupportsTransition reports whether a panorama can be cross-faded to.
	//
	// Parameters:
	//   - p: the panorama
	//
	// Returns:
	//   - bool: true if the panorama has a base image
	SupportsTransition(p *Panorama) bool

	// SupportsPreload reports whether a panorama can be loaded ahead of time.
	//
	// Parameters:
	//   - p: the panorama
	//
	// Returns:
	//   - bool: true if the panorama has a base image
	SupportsPreload(p *Panorama) bool

	// Refresh recomputes the visible tiles and updates the load queue.
	// Called on every camera position or zoom change, a no-op until tiles are streaming.
	Refresh()

	// State retrieves the lifecycle phase.
	//
	// Returns:
	//   - State: the current phase
	State() State

	// Stats retrieves the streaming counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Config retrieves the configuration the adapter was built with.
	//
	// Returns:
	//   - Config: the configuration
	Config() Config

	// Destroy stops listening to camera events, cancels every load and disposes every material the adapter created.
	// Further calls are no-ops.
	Destroy()
}

var (
	_ Adapter                          = &adapter{}
	_ events.PositionUpdatedSubscriber = &adapter{}
	_ events.ZoomUpdatedSubscriber     = &adapter{}
)

// NewAdapter creates a new Adapter and subscribes it to the camera events of the dispatcher.
//
// Parameters:
//   - viewer: the camera state, must not be nil
//   - dispatcher: the source of camera events, must not be nil
//   - target: the renderer, must not be nil
//   - options: variadic list of AdapterBuilderOption functions to configure the adapter
//
// Returns:
//   - Adapter: the new adapter
//   - error: a *common.ViewerError if the resolution is invalid
func NewAdapter(viewer ViewerState, dispatcher events.Dispatcher, target RenderTarget, options ...AdapterBuilderOption) (Adapter, error) {
	if viewer == nil {
		panic("adapter viewer state cannot be nil")
	}
	if dispatcher == nil {
		panic("adapter dispatcher cannot be nil")
	}
	if target == nil {
		panic("adapter render target cannot be nil")
	}

	a := &adapter{
		mu:         &sync.Mutex{},
		config:     DefaultConfig(),
		viewer:     viewer,
		dispatcher: dispatcher,
		target:     target,
		logger:     common.Logger(),
	}
	for _, opt := range options {
		opt(a)
	}

	if err := geometry.ValidateResolution(a.config.Resolution); err != nil {
		return nil, fmt.Errorf("invalid adapter resolution: %w", err)
	}
	a.config.RequestHeaders = copyHeaders(a.config.RequestHeaders)

	if a.queue == nil {
		a.queue = queue.NewQueue(queue.WithConcurrency(a.config.Concurrency), queue.WithLogger(a.logger))
		a.ownsQueue = true
	}

	ldr := a.pendingLoader
	if ldr == nil {
		ldr = loader.NewLoader(loader.WithLogger(a.logger))
	}
	a.equirectangularLoader = &equirectangularLoader{
		loader:          ldr,
		target:          target,
		headers:         a.requestHeaders,
		baseBlur:        a.config.BaseBlur,
		maxTextureWidth: a.config.MaxTextureWidth,
		maxCanvasWidth:  a.config.MaxCanvasWidth,
		logger:          a.logger,
	}

	a.unsubscribePosition = dispatcher.SubscribePositionUpdated(a)
	a.unsubscribeZoom = dispatcher.SubscribeZoomUpdated(a)
	return a, nil
}

// OnPositionUpdated refreshes the visible tiles.
func (a *adapter) OnPositionUpdated(events.PositionUpdatedEvent) {
	a.Refresh()
}

// OnZoomUpdated refreshes the visible tiles.
func (a *adapter) OnZoomUpdated(events.ZoomUpdatedEvent) {
	a.Refresh()
}

func (a *adapter) LoadTexture(ctx context.Context, p *Panorama) (TextureData, error) {
	if _, err := validatePanorama(p, a.config.Resolution); err != nil {
		return TextureData{}, err
	}

	data := TextureData{
		Panorama: p,
		PanoData: PanoData{
			FullWidth:     p.Width,
			FullHeight:    p.Width / 2,
			CroppedWidth:  p.Width,
			CroppedHeight: p.Width / 2,
		},
	}
	if p.BaseURL == "" {
		return data, nil
	}

	tex, err := a.loadBaseTexture(ctx, p.BaseURL, p.BasePanoData, p.BasePanoDataFunc)
	if err != nil {
		return TextureData{}, err
	}
	data.Texture = tex
	return data, nil
}

func (a *adapter) CreateMesh(scale float32) mesh.Mesh {
	if scale <= 0 {
		scale = 1
	}
	// resolution was validated in NewAdapter
	geom, err := geometry.NewSphereGeometry(a.config.SphereRadius*scale, a.config.Resolution)
	if err != nil {
		panic(err)
	}
	return mesh.NewMesh(geom, mesh.WithName("Panorama"))
}

func (a *adapter) SetTexture(m mesh.Mesh, data TextureData, transition bool) error {
	if m == nil {
		return fmt.Errorf("cannot set texture: mesh is nil")
	}
	if m.MaterialCount() != a.config.Resolution*a.config.Resolution/2 {
		return fmt.Errorf("cannot set texture: mesh has %d material slots, want %d", m.MaterialCount(), a.config.Resolution*a.config.Resolution/2)
	}
	layout, err := validatePanorama(data.Panorama, a.config.Resolution)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return fmt.Errorf("cannot set texture: adapter destroyed")
	}

	if transition {
		if a.state.transitionMaterial != nil && a.state.transitionMesh != m {
			a.disposeMaterial(a.state.transitionMaterial, data.Texture)
		}
		base := a.newBaseMaterial(data.Texture)
		m.FillMaterials(base)
		a.state.transitionMesh = m
		a.state.transitionMaterial = base
		if a.state.phase == StateUnloaded {
			a.state.phase = StateBaseTextureShown
		}
		a.target.RequestRender()
		return nil
	}

	base := a.reusableBaseMaterial(data.Texture)
	a.cleanup(m, data.Texture)
	if base == nil {
		base = a.newBaseMaterial(data.Texture)
	} else {
		base.SetOpacity(1)
	}
	m.FillMaterials(base)
	m.ResetUVs()

	session := uuid.NewString()
	a.state = adapterState{
		phase:        StateTilesStreaming,
		session:      session,
		panorama:     data.Panorama,
		mesh:         m,
		layout:       layout,
		colSize:      data.Panorama.Width / data.Panorama.Cols,
		rowSize:      data.Panorama.Width / 2 / data.Panorama.Rows,
		tiles:        make(map[string]bool),
		baseMaterial: base,
	}

	a.logger.Info("panorama set",
		"session", session,
		"width", data.Panorama.Width,
		"cols", data.Panorama.Cols,
		"rows", data.Panorama.Rows,
		"faces_by_col", layout.FacesByCol(),
		"faces_by_row", layout.FacesByRow(),
	)

	// the first refresh runs once the host is done with the mesh
	time.AfterFunc(0, func() {
		a.refresh(session)
	})
	a.target.RequestRender()
	return nil
}

func (a *adapter) SetTextureOpacity(m mesh.Mesh, opacity float32) {
	if m == nil {
		return
	}
	mat := m.Material(0)
	if mat == nil {
		return
	}
	mat.SetOpacity(opacity)
	a.target.RequestRender()
}

func (a *adapter) SupportsTransition(p *Panorama) bool {
	return p != nil && p.BaseURL != ""
}

func (a *adapter) SupportsPreload(p *Panorama) bool {
	return p != nil && p.BaseURL != ""
}

func (a *adapter) Refresh() {
	a.refresh("")
}

func (a *adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.phase
}

func (a *adapter) Stats() Stats {
	a.mu.Lock()
	s := Stats{
		Session:   a.state.session,
		State:     a.state.phase,
		TilesSeen: len(a.state.tiles),
	}
	a.mu.Unlock()
	s.Queued = a.queue.Len()
	s.Running = a.queue.RunningCount()
	return s
}

func (a *adapter) Config() Config {
	c := a.config
	c.RequestHeaders = copyHeaders(a.config.RequestHeaders)
	return c
}

func (a *adapter) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true

	a.unsubscribePosition()
	a.unsubscribeZoom()

	a.cleanup(nil, nil)
	if a.errorMaterial != nil {
		a.errorMaterial.Dispose()
		a.errorMaterial = nil
	}
	session := a.state.session
	a.state = adapterState{}
	a.mu.Unlock()

	if a.ownsQueue {
		a.queue.Stop()
	}
	a.logger.Info("adapter destroyed", "session", session)
}

// refresh evaluates visibility and updates the queue.
// A non-empty session makes it a no-op if another panorama was set in the meantime.
func (a *adapter) refresh(session string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed || a.state.phase != StateTilesStreaming || a.state.layout == nil {
		return
	}
	if session != "" && session != a.state.session {
		return
	}

	tiles := evaluateVisibility(a.viewer, a.state.layout, a.state.mesh.Geometry())
	a.loadTiles(tiles)
}

// cleanup cancels every load, forgets the seen tiles and disposes the materials of the current mesh
// and of next. Materials wrapping keep are detached without releasing it. Caller must hold mu.
func (a *adapter) cleanup(next mesh.Mesh, keep texture.Texture) {
	a.queue.Clear()
	a.state.tiles = make(map[string]bool)

	seen := make(map[material.Material]struct{})
	dispose := func(m mesh.Mesh) {
		if m == nil {
			return
		}
		for _, mat := range m.Materials() {
			if mat == nil {
				continue
			}
			if _, ok := seen[mat]; ok {
				continue
			}
			seen[mat] = struct{}{}
			a.disposeMaterial(mat, keep)
		}
		m.FillMaterials(nil)
	}
	dispose(a.state.mesh)
	if next != a.state.mesh {
		dispose(next)
	}

	if a.state.transitionMaterial != nil {
		a.disposeMaterial(a.state.transitionMaterial, keep)
	}
	a.state.transitionMesh = nil
	a.state.transitionMaterial = nil
}

// disposeMaterial disposes a material unless it is the shared error material or wraps keep. Caller must hold mu.
func (a *adapter) disposeMaterial(mat material.Material, keep texture.Texture) {
	if mat == nil || mat == a.errorMaterial {
		return
	}
	if keep != nil && mat.Texture() == keep {
		return
	}
	mat.Dispose()
}

// newBaseMaterial builds the material covering the whole mesh before tiles load.
// Without a base texture the material is fully transparent.
func (a *adapter) newBaseMaterial(tex texture.Texture) material.Material {
	if tex == nil {
		return material.NewMaterial(material.WithName("Base"), material.WithOpacity(0))
	}
	return material.NewMaterial(material.WithName("Base"), material.WithTexture(tex))
}

// reusableBaseMaterial returns the live base material already wrapping tex, whichever mesh holds it.
// This is the case at the end of a transition, or when the same texture data is set again. Caller must hold mu.
func (a *adapter) reusableBaseMaterial(tex texture.Texture) material.Material {
	if tex == nil {
		return nil
	}
	for _, mat := range []material.Material{a.state.transitionMaterial, a.state.baseMaterial} {
		if mat != nil && !mat.Disposed() && mat.Texture() == tex {
			return mat
		}
	}
	return nil
}

// requestHeaders returns the headers sent with a request to url.
func (a *adapter) requestHeaders(url string) map[string]string {
	if a.config.RequestHeadersFunc != nil {
		return a.config.RequestHeadersFunc(url)
	}
	return a.config.RequestHeaders
}

// validatePanorama checks a panorama against the sphere resolution and returns its tile layout.
func validatePanorama(p *Panorama, resolution int) (*geometry.TileLayout, error) {
	if p == nil || p.Width <= 0 || p.Cols <= 0 || p.Rows <= 0 || p.TileURL == nil {
		return nil, common.NewViewerError(common.ErrInvalidPanorama, "panorama must have a width, cols, rows and a tile URL builder")
	}
	if p.Width%2 != 0 {
		return nil, common.NewViewerError(common.ErrOddWidth, "panorama width is %d", p.Width)
	}
	layout, err := geometry.NewTileLayout(resolution, p.Cols, p.Rows)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
