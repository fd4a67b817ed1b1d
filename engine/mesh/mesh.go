package mesh

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/engine/geometry"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu *sync.RWMutex

	name      string
	geometry  *geometry.SphereGeometry
	materials []material.Material
	uvsDirty  bool
}

// Mesh defines the interface for the panorama sphere: a SphereGeometry plus one material slot per face group.
//
// Material slots and UVs are mutated by tile loads running on worker goroutines while the
// renderer reads them, so every accessor is safe for concurrent use. The UV dirty flag
// tells the renderer that the UV buffer needs to be uploaded again.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Geometry retrieves the sphere geometry. Its UVs must only be changed through WriteUVs and ResetUVs.
	//
	// Returns:
	//   - *geometry.SphereGeometry: the geometry
	Geometry() *geometry.SphereGeometry

	// MaterialCount returns the number of material slots, one per geometry group.
	//
	// Returns:
	//   - int: the slot count
	MaterialCount() int

	// Material retrieves the material in a slot.
	//
	// Parameters:
	//   - slot: the material slot
	//
	// Returns:
	//   - material.Material: the material, or nil if the slot is empty or out of range
	Material(slot int) material.Material

	// Materials returns a snapshot of every material slot.
	//
	// Returns:
	//   - []material.Material: the materials, indexed by slot
	Materials() []material.Material

	// SetMaterial puts a material in a slot. Out of range slots are ignored.
	//
	// Parameters:
	//   - slot: the material slot
	//   - m: the material
	SetMaterial(slot int, m material.Material)

	// FillMaterials puts the same material in every slot.
	//
	// Parameters:
	//   - m: the material
	FillMaterials(m material.Material)

	// WriteUVs overwrites the UVs of consecutive vertices and marks the UVs dirty.
	//
	// Parameters:
	//   - firstVertex: the first vertex to overwrite
	//   - uvs: two values per vertex
	WriteUVs(firstVertex int, uvs []float32)

	// ResetUVs restores the UVs the geometry was built with and marks them dirty.
	ResetUVs()

	// UVsDirty reports whether the UVs changed since the last TakeUVs.
	//
	// Returns:
	//   - bool: true if an upload is needed
	UVsDirty() bool

	// TakeUVs returns a copy of the UVs and clears the dirty flag.
	//
	// Returns:
	//   - []float32: the UVs, two values per vertex
	//   - bool: whether the UVs were dirty
	TakeUVs() ([]float32, bool)
}

var _ Mesh = &mesh{}

// NewMesh creates a new Mesh over a sphere geometry with one empty material slot per group.
//
// Parameters:
//   - geom: the sphere geometry, must not be nil
//   - options: variadic list of MeshBuilderOption functions to configure the mesh
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(geom *geometry.SphereGeometry, options ...MeshBuilderOption) Mesh {
	if geom == nil {
		panic("mesh geometry cannot be nil")
	}
	m := &mesh{
		mu:        &sync.RWMutex{},
		geometry:  geom,
		materials: make([]material.Material, len(geom.Groups)),
		uvsDirty:  true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Geometry() *geometry.SphereGeometry {
	return m.geometry
}

func (m *mesh) MaterialCount() int {
	return len(m.materials)
}

func (m *mesh) Material(slot int) material.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if slot < 0 || slot >= len(m.materials) {
		return nil
	}
	return m.materials[slot]
}

func (m *mesh) Materials() []material.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]material.Material, len(m.materials))
	copy(out, m.materials)
	return out
}

func (m *mesh) SetMaterial(slot int, mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot < 0 || slot >= len(m.materials) {
		return
	}
	m.materials[slot] = mat
}

func (m *mesh) FillMaterials(mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.materials {
		m.materials[i] = mat
	}
}

func (m *mesh) WriteUVs(firstVertex int, uvs []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := firstVertex * 2
	if offset < 0 || offset+len(uvs) > len(m.geometry.UVs) {
		return
	}
	copy(m.geometry.UVs[offset:], uvs)
	m.uvsDirty = true
}

func (m *mesh) ResetUVs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geometry.ResetUVs()
	m.uvsDirty = true
}

func (m *mesh) UVsDirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uvsDirty
}

func (m *mesh) TakeUVs() ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.geometry.UVs))
	copy(out, m.geometry.UVs)
	dirty := m.uvsDirty
	m.uvsDirty = false
	return out, dirty
}
