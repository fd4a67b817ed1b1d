package texture

import (
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// GPUResource is a GPU-side allocation attached to a Texture by a renderer backend.
type GPUResource interface {
	// Release frees the GPU allocation.
	Release()
}

// texture is the implementation of the Texture interface.
type texture struct {
	mu *sync.Mutex

	label    string
	img      *image.RGBA
	width    int
	height   int
	gpu      GPUResource
	released bool
}

// Texture is a decoded RGBA image that may be backed by a GPU allocation.
//
// Pixel data stays on the CPU side until a renderer backend uploads it and attaches the
// resulting GPUResource. Release frees both sides and is safe to call more than once.
type Texture interface {
	// Label retrieves the debug label of the texture.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Image retrieves the CPU-side pixels.
	//
	// Returns:
	//   - *image.RGBA: the image, or nil once released
	Image() *image.RGBA

	// Width retrieves the width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height retrieves the height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Staging retrieves the pixels in the form expected by renderer backends.
	//
	// Returns:
	//   - common.TextureStagingData: the staging data, empty once released
	Staging() common.TextureStagingData

	// GPUResource retrieves the attached GPU allocation.
	//
	// Returns:
	//   - GPUResource: the allocation, or nil if the texture was never uploaded
	GPUResource() GPUResource

	// SetGPUResource attaches a GPU allocation. A previous allocation is released.
	// Attaching to a released texture releases r immediately.
	//
	// Parameters:
	//   - r: the allocation to attach
	SetGPUResource(r GPUResource)

	// Release frees the GPU allocation and drops the CPU-side pixels.
	Release()

	// Released reports whether Release was called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

var _ Texture = &texture{}

// NewTexture creates a new Texture from an RGBA image.
//
// Parameters:
//   - img: the pixels, must not be nil
//   - options: variadic list of TextureBuilderOption functions to configure the texture
//
// Returns:
//   - Texture: the new texture
func NewTexture(img *image.RGBA, options ...TextureBuilderOption) Texture {
	if img == nil {
		panic("texture image cannot be nil")
	}
	t := &texture{
		mu:     &sync.Mutex{},
		img:    img,
		width:  img.Rect.Dx(),
		height: img.Rect.Dy(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *texture) Label() string {
	return t.label
}

func (t *texture) Image() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img
}

func (t *texture) Width() int {
	return t.width
}

func (t *texture) Height() int {
	return t.height
}

func (t *texture) Staging() common.TextureStagingData {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.img == nil {
		return common.TextureStagingData{}
	}
	return common.StagingFromRGBA(t.img)
}

func (t *texture) GPUResource() GPUResource {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gpu
}

func (t *texture) SetGPUResource(r GPUResource) {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		if r != nil {
			r.Release()
		}
		return
	}
	prev := t.gpu
	t.gpu = r
	t.mu.Unlock()

	if prev != nil && prev != r {
		prev.Release()
	}
}

func (t *texture) Release() {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return
	}
	t.released = true
	gpu := t.gpu
	t.gpu = nil
	t.img = nil
	t.mu.Unlock()

	if gpu != nil {
		gpu.Release()
	}
}

func (t *texture) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}
