package renderer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/mesh"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// meshes holds the uploaded vertex buffers per mesh.
	meshes map[mesh.Mesh]meshResource

	pending    atomic.Bool
	frameCount atomic.Int64
	released   bool

	logger *slog.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	sampler              common.SamplerStagingData
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns a backend that holds the GPU copies of tile textures and sphere meshes.
// It does not draw on its own: the host calls Frame once per tick, and a frame is only produced when
// something requested a render or the mesh UVs changed since the last frame.
// All methods are safe for concurrent use.
type Renderer interface {
	// RequestRender marks the next Frame as needed.
	// Tile loading goroutines call this after swapping a material into the mesh.
	RequestRender()

	// RenderPending reports whether a render was requested and not yet produced.
	//
	// Returns:
	//   - bool: true if the next Frame will render
	RenderPending() bool

	// UploadTexture copies the texture pixels to the backend and attaches the allocation to the texture.
	// Releasing the texture releases the allocation.
	//
	// Parameters:
	//   - tex: the texture to upload
	//
	// Returns:
	//   - error: error if the texture was already released or the backend upload fails
	UploadTexture(tex texture.Texture) error

	// Frame produces one frame of the given mesh if one is needed.
	// The mesh vertex buffers are created on first use, and the UV buffer is rewritten whenever the mesh UVs are dirty.
	//
	// Parameters:
	//   - m: the mesh to draw, may be nil when no panorama is shown
	//
	// Returns:
	//   - bool: true if a frame was produced
	//   - error: error if the mesh upload fails
	Frame(m mesh.Mesh) (bool, error)

	// ReleaseMesh frees the vertex buffers of a mesh previously passed to Frame.
	//
	// Parameters:
	//   - m: the mesh
	ReleaseMesh(m mesh.Mesh)

	// FrameCount retrieves the number of frames produced so far.
	//
	// Returns:
	//   - int64: the frame count
	FrameCount() int64

	// BackendType retrieves the backend type chosen at construction.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Stats retrieves the upload counters of the backend.
	//
	// Returns:
	//   - BackendStats: the counters
	Stats() BackendStats

	// Release frees every mesh buffer and the backend. Further uploads fail.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
// The wgpu backend requests a GPU adapter immediately and panics if none is available.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		meshes:      make(map[mesh.Mesh]meshResource),
		logger:      common.Logger(),
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		r.backend = newWGPURendererBackend(r.forceFallbackAdapter, r.sampler)
	default:
		r.backendType = BackendTypeHeadless
		r.backend = newHeadlessRendererBackend()
	}

	return r
}

func (r *renderer) RequestRender() {
	r.pending.Store(true)
}

func (r *renderer) RenderPending() bool {
	return r.pending.Load()
}

func (r *renderer) UploadTexture(tex texture.Texture) error {
	if tex == nil || tex.Released() {
		return fmt.Errorf("cannot upload a released texture")
	}

	r.mu.Lock()
	released := r.released
	r.mu.Unlock()
	if released {
		return fmt.Errorf("cannot upload %s: renderer released", tex.Label())
	}

	res, err := r.backend.UploadTexture(tex.Label(), tex.Staging())
	if err != nil {
		return fmt.Errorf("failed to upload texture %s: %w", tex.Label(), err)
	}
	tex.SetGPUResource(res)
	return nil
}

func (r *renderer) Frame(m mesh.Mesh) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return false, nil
	}

	uvsChanged := false
	if m != nil {
		uvs, dirty := m.TakeUVs()
		res, uploaded := r.meshes[m]
		switch {
		case !uploaded:
			var err error
			res, err = r.backend.UploadMesh(m.Name(), m.Geometry().Positions, uvs)
			if err != nil {
				// Keep the dirty state so the next frame retries.
				m.WriteUVs(0, uvs)
				return false, fmt.Errorf("failed to upload mesh %s: %w", m.Name(), err)
			}
			r.meshes[m] = res
			uvsChanged = true
		case dirty:
			r.backend.WriteUVs(res, uvs)
			uvsChanged = true
		}
	}

	if !r.pending.Swap(false) && !uvsChanged {
		return false, nil
	}
	r.frameCount.Add(1)
	return true, nil
}

func (r *renderer) ReleaseMesh(m mesh.Mesh) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.meshes[m]; ok {
		res.Release()
		delete(r.meshes, m)
	}
}

func (r *renderer) FrameCount() int64 {
	return r.frameCount.Load()
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Stats() BackendStats {
	return r.backend.Stats()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	for m, res := range r.meshes {
		res.Release()
		delete(r.meshes, m)
	}
	r.backend.Release()
	r.logger.Debug("renderer released", "backend", r.backendType.String(), "frames", r.frameCount.Load())
}
