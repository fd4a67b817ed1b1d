package renderer

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeHeadless keeps every resource on the CPU and only tracks uploads.
	// It is the default and needs no GPU.
	BackendTypeHeadless RendererBackendType = iota
	// BackendTypeWGPU selects the WebGPU-based backend. It needs a GPU adapter.
	BackendTypeWGPU
)

// String returns the configuration name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "headless"
	}
}

// ParseBackendType maps a configuration name to a backend type.
//
// Parameters:
//   - name: "headless", "wgpu" or empty for the default
//
// Returns:
//   - RendererBackendType: the backend type
//   - bool: false if the name is unknown
func ParseBackendType(name string) (RendererBackendType, bool) {
	switch name {
	case "", "headless":
		return BackendTypeHeadless, true
	case "wgpu":
		return BackendTypeWGPU, true
	default:
		return BackendTypeHeadless, false
	}
}

// meshResource is the GPU-side vertex data of one mesh.
type meshResource interface {
	Release()
}

// BackendStats holds upload counters of a backend.
type BackendStats struct {
	// TexturesUploaded is the number of textures uploaded since creation.
	TexturesUploaded int
	// TexturesLive is the number of uploaded textures not released yet.
	TexturesLive int
	// TextureBytes is the number of pixel bytes uploaded since creation.
	TextureBytes int64
	// UVUploads is the number of UV buffer writes since creation.
	UVUploads int
}

// RendererBackend is the top-level backend interface for the Renderer.
// Implementations must be safe for concurrent use, textures are uploaded from tile loading goroutines.
type RendererBackend interface {
	// UploadTexture creates a GPU texture from RGBA pixels.
	//
	// Parameters:
	//   - label: the debug label of the allocation
	//   - staging: the pixels
	//
	// Returns:
	//   - texture.GPUResource: the allocation, released by the texture that owns it
	//   - error: error if the allocation fails
	UploadTexture(label string, staging common.TextureStagingData) (texture.GPUResource, error)

	// UploadMesh creates the vertex buffers of a mesh.
	//
	// Parameters:
	//   - label: the debug label of the buffers
	//   - positions: xyz per vertex
	//   - uvs: uv per vertex
	//
	// Returns:
	//   - meshResource: the buffers
	//   - error: error if the allocation fails
	UploadMesh(label string, positions, uvs []float32) (meshResource, error)

	// WriteUVs overwrites the UV buffer of a mesh uploaded by UploadMesh.
	//
	// Parameters:
	//   - res: the mesh buffers
	//   - uvs: uv per vertex
	WriteUVs(res meshResource, uvs []float32)

	// Stats returns upload counters.
	//
	// Returns:
	//   - BackendStats: the counters
	Stats() BackendStats

	// Release frees the device and every backend-owned resource.
	Release()
}
