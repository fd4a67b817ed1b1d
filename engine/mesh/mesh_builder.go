package mesh

import (
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
)

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithMaterial is an option builder that fills every material slot of the Mesh with one material.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - MeshBuilderOption: a function that applies the material option to a mesh
func WithMaterial(mat material.Material) MeshBuilderOption {
	return func(m *mesh) {
		for i := range m.materials {
			m.materials[i] = mat
		}
	}
}
