package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	// sampler is shared by every tile texture. Clamp-to-edge keeps tile borders from bleeding.
	sampler *wgpu.Sampler

	stats    BackendStats
	released bool
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// wgpuTexture owns the texture and view created for one tile or base image.
type wgpuTexture struct {
	backend *wgpuRendererBackendImpl
	texture *wgpu.Texture
	view    *wgpu.TextureView
	once    sync.Once
}

func (t *wgpuTexture) Release() {
	t.once.Do(func() {
		if t.view != nil {
			t.view.Release()
		}
		if t.texture != nil {
			t.texture.Release()
		}
		t.backend.mu.Lock()
		t.backend.stats.TexturesLive--
		t.backend.mu.Unlock()
	})
}

// View retrieves the texture view bound when drawing.
func (t *wgpuTexture) View() *wgpu.TextureView {
	return t.view
}

// wgpuMesh owns the vertex buffers of a sphere mesh.
type wgpuMesh struct {
	positions *wgpu.Buffer
	uvs       *wgpu.Buffer
	once      sync.Once
}

func (m *wgpuMesh) Release() {
	m.once.Do(func() {
		if m.positions != nil {
			m.positions.Release()
		}
		if m.uvs != nil {
			m.uvs.Release()
		}
	})
}

func newWGPURendererBackend(forceFallbackAdapter bool, sampler common.SamplerStagingData) *wgpuRendererBackendImpl {
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Panorama Device",
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	samp, err := w.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Tile Sampler",
		AddressModeU:  common.Coalesce(sampler.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(sampler.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(sampler.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(sampler.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(sampler.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(sampler.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(sampler.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(sampler.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(sampler.MaxAnisotropy, 1),
	})
	if err != nil {
		panic(err)
	}
	w.sampler = samp

	return w
}

func (b *wgpuRendererBackendImpl) UploadTexture(label string, staging common.TextureStagingData) (texture.GPUResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, fmt.Errorf("cannot upload %s: backend released", label)
	}
	if staging.Width == 0 || staging.Height == 0 {
		return nil, fmt.Errorf("cannot upload %s: empty texture", label)
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %s: %w", label, err)
	}

	b.stats.TexturesUploaded++
	b.stats.TexturesLive++
	b.stats.TextureBytes += int64(len(staging.Pixels))
	return &wgpuTexture{backend: b, texture: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) UploadMesh(label string, positions, uvs []float32) (meshResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, fmt.Errorf("cannot upload %s: backend released", label)
	}

	m := &wgpuMesh{}
	var err error
	m.positions, err = b.createVertexBuffer(label+" Position Buffer", common.SliceToBytes(positions))
	if err != nil {
		return nil, err
	}
	m.uvs, err = b.createVertexBuffer(label+" UV Buffer", common.SliceToBytes(uvs))
	if err != nil {
		m.Release()
		return nil, err
	}
	b.stats.UVUploads++
	return m, nil
}

func (b *wgpuRendererBackendImpl) WriteUVs(res meshResource, uvs []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := res.(*wgpuMesh)
	if !ok || m.uvs == nil || b.released {
		return
	}
	b.queue.WriteBuffer(m.uvs, 0, common.SliceToBytes(uvs))
	b.stats.UVUploads++
}

func (b *wgpuRendererBackendImpl) Stats() BackendStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true

	if b.sampler != nil {
		b.sampler.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// createVertexBuffer creates a vertex buffer and fills it. Caller must hold mu.
func (b *wgpuRendererBackendImpl) createVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}
