package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

type headlessRendererBackendImpl struct {
	mu    *sync.Mutex
	stats BackendStats
}

var _ RendererBackend = &headlessRendererBackendImpl{}

func newHeadlessRendererBackend() *headlessRendererBackendImpl {
	return &headlessRendererBackendImpl{mu: &sync.Mutex{}}
}

type headlessTexture struct {
	backend *headlessRendererBackendImpl
	once    sync.Once
}

func (t *headlessTexture) Release() {
	t.once.Do(func() {
		t.backend.mu.Lock()
		t.backend.stats.TexturesLive--
		t.backend.mu.Unlock()
	})
}

type headlessMesh struct {
	uvs []float32
}

func (*headlessMesh) Release() {}

func (b *headlessRendererBackendImpl) UploadTexture(_ string, staging common.TextureStagingData) (texture.GPUResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.TexturesUploaded++
	b.stats.TexturesLive++
	b.stats.TextureBytes += int64(len(staging.Pixels))
	return &headlessTexture{backend: b}, nil
}

func (b *headlessRendererBackendImpl) UploadMesh(_ string, _, uvs []float32) (meshResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.UVUploads++
	return &headlessMesh{uvs: uvs}, nil
}

func (b *headlessRendererBackendImpl) WriteUVs(res meshResource, uvs []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := res.(*headlessMesh); ok {
		m.uvs = uvs
	}
	b.stats.UVUploads++
}

func (b *headlessRendererBackendImpl) Stats() BackendStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *headlessRendererBackendImpl) Release() {}
