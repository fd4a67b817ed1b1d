package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name      string
	baseColor [4]float32
	texture   texture.Texture
	opacity   float32
	disposed  bool
}

// Material defines the interface for a sphere face material: an unlit texture map with an opacity.
//
// The surface name, base color and texture are set at construction time and are read-only
// through this interface. Opacity is mutable so panoramas can cross-fade. Dispose releases
// the texture and must be called explicitly, GPU memory is never reclaimed by the garbage collector.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the color multiplied with the texture, or drawn alone without one.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Texture retrieves the texture map, or nil if none is set.
	//
	// Returns:
	//   - texture.Texture: the texture, or nil
	Texture() texture.Texture

	// Opacity retrieves the opacity of the material in [0, 1].
	//
	// Returns:
	//   - float32: the opacity
	Opacity() float32

	// SetOpacity sets the opacity of the material. Values are clamped to [0, 1].
	//
	// Parameters:
	//   - opacity: the new opacity
	SetOpacity(opacity float32)

	// Transparent reports whether the material must be blended, which is the case when its opacity is below 1.
	//
	// Returns:
	//   - bool: true if the material is transparent
	Transparent() bool

	// Dispose releases the texture of the material. Calling it again does nothing.
	Dispose()

	// Disposed reports whether Dispose was called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:        &sync.Mutex{},
		baseColor: [4]float32{1, 1, 1, 1},
		opacity:   1,
	}
	for _, opt := range options {
		opt(m)
	}
	m.opacity = clampOpacity(m.opacity)
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Texture() texture.Texture {
	return m.texture
}

func (m *material) Opacity() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opacity
}

func (m *material) SetOpacity(opacity float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opacity = clampOpacity(opacity)
}

func (m *material) Transparent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opacity < 1
}

func (m *material) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mu.Unlock()

	if m.texture != nil {
		m.texture.Release()
	}
}

func (m *material) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

func clampOpacity(o float32) float32 {
	return max(0, min(o, 1))
}
