package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/adapter"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/events"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/mesh"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer"
)

// transition is a panorama fading in over the current one.
type transition struct {
	mesh    mesh.Mesh
	data    adapter.TextureData
	elapsed time.Duration
}

// engine implements the Engine interface.
// Coordinates the tick and render threads around a single panorama adapter.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	mu      *sync.Mutex
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	closeOnce   sync.Once

	camera     camera.Camera
	controller camera.CameraController
	dispatcher events.Dispatcher
	renderer   renderer.Renderer
	loader     loader.Loader
	adapter    adapter.Adapter

	mesh               mesh.Mesh
	transition         *transition
	transitionDuration time.Duration

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	logger *slog.Logger

	// Pre-creation config collected from builder options
	backendType       renderer.RendererBackendType
	rendererOptions   []renderer.RendererBuilderOption
	cameraOptions     []camera.CameraBuilderOption
	controllerOptions []camera.CameraControllerOption
	loaderOptions     []loader.LoaderBuilderOption
	adapterOptions    []adapter.AdapterBuilderOption
	profilerInterval  time.Duration
}

// Engine is the main entry point for the viewer.
// It owns the camera, the event dispatcher, the renderer and the panorama adapter,
// and drives the tick loop and the render loop.
type Engine interface {
	// Camera retrieves the camera the panorama is seen through.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Controller retrieves the controller moving the camera every tick.
	//
	// Returns:
	//   - camera.CameraController: the controller
	Controller() camera.CameraController

	// Adapter retrieves the tiled panorama adapter.
	//
	// Returns:
	//   - adapter.Adapter: the adapter
	Adapter() adapter.Adapter

	// Renderer retrieves the renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Mesh retrieves the mesh of the panorama currently streamed.
	//
	// Returns:
	//   - mesh.Mesh: the mesh, nil before the first panorama was set
	Mesh() mesh.Mesh

	// SetPanorama loads a panorama and shows it.
	// When a panorama is already shown and the new one has a base image, the new one fades in
	// over the transition duration before its tiles start streaming. Otherwise it replaces
	// the current one immediately.
	//
	// Parameters:
	//   - ctx: cancels the base image request
	//   - p: the panorama
	//
	// Returns:
	//   - error: a *common.ViewerError for invalid panoramas, or the base image loading error
	SetPanorama(ctx context.Context, p *adapter.Panorama) error

	// Transitioning reports whether a panorama is fading in.
	//
	// Returns:
	//   - bool: true during a transition
	Transitioning() bool

	// EnableProfiler enables streaming statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables streaming statistics output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The camera controller and the tick callback are updated at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and blocks until Quit is called.
	// Every resource the engine owns is released before it returns.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine and every collaborator it owns.
// Defaults: headless renderer, 60 ticks per second, 60 frames per second, 500ms transitions.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, adapter options, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: a *common.ViewerError if the adapter configuration is invalid
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRateChannel:    make(chan time.Duration, 1),
		quitChannel:        make(chan struct{}),
		mu:                 &sync.Mutex{},
		wg:                 sync.WaitGroup{},
		engineTickRate:     time.Second / 60,
		renderFrameLimit:   time.Second / 60,
		transitionDuration: 500 * time.Millisecond,
		backendType:        renderer.BackendTypeHeadless,
		profilerInterval:   time.Second,
		logger:             common.Logger(),
	}
	for _, opt := range options {
		opt(e)
	}

	e.dispatcher = events.NewDispatcher()
	e.camera = camera.NewCamera(append([]camera.CameraBuilderOption{camera.WithDispatcher(e.dispatcher)}, e.cameraOptions...)...)
	e.controller = camera.NewCameraController(e.camera, e.controllerOptions...)
	e.renderer = renderer.NewRenderer(e.backendType, append([]renderer.RendererBuilderOption{renderer.WithLogger(e.logger)}, e.rendererOptions...)...)
	e.loader = loader.NewLoader(append([]loader.LoaderBuilderOption{loader.WithLogger(e.logger)}, e.loaderOptions...)...)

	a, err := adapter.NewAdapter(e.camera, e.dispatcher, e.renderer,
		append([]adapter.AdapterBuilderOption{adapter.WithLoader(e.loader), adapter.WithLogger(e.logger)}, e.adapterOptions...)...)
	if err != nil {
		e.renderer.Release()
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}
	e.adapter = a

	e.profiler = profiler.NewProfiler(
		profiler.WithInterval(e.profilerInterval),
		profiler.WithStatsSource(e.streamingStats),
		profiler.WithLogger(e.logger),
	)
	return e, nil
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Controller() camera.CameraController {
	return e.controller
}

func (e *engine) Adapter() adapter.Adapter {
	return e.adapter
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Mesh() mesh.Mesh {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mesh
}

func (e *engine) SetPanorama(ctx context.Context, p *adapter.Panorama) error {
	data, err := e.adapter.LoadTexture(ctx, p)
	if err != nil {
		return err
	}
	m := e.adapter.CreateMesh(1)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transition != nil {
		e.abandonTransition()
	}

	if e.mesh != nil && e.transitionDuration > 0 && e.adapter.SupportsTransition(p) {
		if err := e.adapter.SetTexture(m, data, true); err != nil {
			return e.discard(data, err)
		}
		e.adapter.SetTextureOpacity(m, 0)
		e.transition = &transition{mesh: m, data: data}
		e.logger.Debug("panorama transition started", "base_url", p.BaseURL, "duration", e.transitionDuration)
		return nil
	}

	if err := e.adapter.SetTexture(m, data, false); err != nil {
		return e.discard(data, err)
	}
	e.replaceMesh(m)
	return nil
}

func (e *engine) Transitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transition != nil
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.handle()
	e.wg.Wait()
	e.close()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Moves the camera, advances the transition and fires the tick callback at the configured tick rate,
// and listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick)
			lastTick = now

			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances the host by dt.
func (e *engine) tick(dt time.Duration) {
	e.controller.Update(dt)
	e.advanceTransition(dt)

	if e.tickCallback != nil {
		e.tickCallback(float32(dt.Seconds()))
	}
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
}

// handleRender runs the frame-limited render loop in its own goroutine.
// Frames the current mesh and the mesh fading in, a frame is only produced when a render was requested
// or UVs changed. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			start := time.Now()
			e.renderFrame()

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame frames every visible mesh. Holds mu so a mesh released by a tick is never framed again.
func (e *engine) renderFrame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	meshes := []mesh.Mesh{e.mesh}
	if e.transition != nil {
		meshes = append(meshes, e.transition.mesh)
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		if _, err := e.renderer.Frame(m); err != nil {
			e.logger.Warn("frame failed", "mesh", m.Name(), "error", err)
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// close destroys the adapter and releases the renderer.
func (e *engine) close() {
	e.closeOnce.Do(func() {
		e.adapter.Destroy()

		e.mu.Lock()
		if e.transition != nil {
			e.renderer.ReleaseMesh(e.transition.mesh)
			e.transition = nil
		}
		if e.mesh != nil {
			e.renderer.ReleaseMesh(e.mesh)
			e.mesh = nil
		}
		e.mu.Unlock()

		e.renderer.Release()
		e.logger.Info("engine stopped", "frames", e.renderer.FrameCount())
	})
}

// advanceTransition raises the opacity of the mesh fading in and makes it current once opaque.
func (e *engine) advanceTransition(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.transition
	if t == nil {
		return
	}
	t.elapsed += dt
	progress := common.Clamp(float32(t.elapsed)/float32(e.transitionDuration), 0, 1)
	e.adapter.SetTextureOpacity(t.mesh, progress)
	if progress < 1 {
		return
	}

	e.transition = nil
	if err := e.adapter.SetTexture(t.mesh, t.data, false); err != nil {
		e.logger.Error("failed to finish panorama transition", "error", err)
		e.renderer.ReleaseMesh(t.mesh)
		return
	}
	e.replaceMesh(t.mesh)
	e.logger.Debug("panorama transition finished", "base_url", t.data.Panorama.BaseURL)
}

// abandonTransition drops the mesh fading in. Its base material is disposed by the adapter with the
// next SetTexture. Caller must hold mu.
func (e *engine) abandonTransition() {
	e.renderer.ReleaseMesh(e.transition.mesh)
	e.transition = nil
}

// replaceMesh makes m the current mesh and frees the GPU buffers of the previous one. Caller must hold mu.
func (e *engine) replaceMesh(m mesh.Mesh) {
	if e.mesh != nil && e.mesh != m {
		e.renderer.ReleaseMesh(e.mesh)
	}
	e.mesh = m
	e.renderer.RequestRender()
}

// discard releases the base texture of a panorama that could not be shown.
func (e *engine) discard(data adapter.TextureData, err error) error {
	if data.Texture != nil {
		data.Texture.Release()
	}
	return fmt.Errorf("failed to set panorama: %w", err)
}

// streamingStats gathers the counters reported by the profiler.
func (e *engine) streamingStats() profiler.StreamingStats {
	a := e.adapter.Stats()
	l := e.loader.Stats()
	r := e.renderer.Stats()
	return profiler.StreamingStats{
		Loaded:       l.Loaded,
		Failed:       l.Failed,
		InFlight:     l.InFlight,
		Queued:       a.Queued,
		Running:      a.Running,
		TexturesLive: r.TexturesLive,
		TextureBytes: r.TextureBytes,
		Frames:       e.renderer.FrameCount(),
	}
}

// EnableProfiler enables streaming statistics output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables streaming statistics output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	if running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
