// Package geometry builds the equirectangular sphere mesh and maps panorama tiles onto its faces.
package geometry

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// MinResolution is the smallest sphere resolution that still has a first, an interior and a last row.
const MinResolution = 4

// ValidateResolution checks that a sphere resolution is a power of two of at least MinResolution.
//
// Parameters:
//   - resolution: the number of longitude segments
//
// Returns:
//   - error: a *common.ViewerError wrapping ErrNotPowerOfTwo or ErrResolutionLow, nil if valid
func ValidateResolution(resolution int) error {
	if !common.IsPowerOfTwo(resolution) {
		return common.NewViewerError(common.ErrNotPowerOfTwo, "resolution must be a power of two, got %d", resolution)
	}
	if resolution < MinResolution {
		return common.NewViewerError(common.ErrResolutionLow, "resolution must be at least %d, got %d", MinResolution, resolution)
	}
	return nil
}

// Group is a contiguous run of vertices drawn with one material slot.
type Group struct {
	// Start is the first vertex of the group in the flattened vertex buffer.
	Start int
	// Count is the number of vertices in the group, 3 for a pole triangle and 6 for a quad.
	Count int
	// MaterialIndex is the material slot used to draw the group.
	MaterialIndex int
}

// SphereGeometry is a non-indexed UV sphere seen from the inside.
// It has Resolution longitude segments and Resolution/2 latitude segments. Pole rows are
// made of single triangles, every other row of two triangles per segment, and each face
// (triangle or quad) is its own Group.
type SphereGeometry struct {
	// Radius is the sphere radius.
	Radius float32
	// Resolution is the number of longitude segments.
	Resolution int
	// Positions holds xyz per vertex.
	Positions []float32
	// UVs holds uv per vertex. They are rewritten when tiles are swapped in.
	UVs []float32
	// OriginalUVs is a pristine copy of UVs used to reset the mesh when the panorama changes.
	OriginalUVs []float32
	// Groups holds one entry per face, in face order.
	Groups []Group

	groupByStart map[int]int
}

// NewSphereGeometry builds the sphere with its seam at the back (longitude starting at -π/2)
// and mirrored on X so the equirectangular image reads left to right from the inside.
//
// Parameters:
//   - radius: the sphere radius
//   - resolution: the number of longitude segments, a power of two of at least MinResolution
//
// Returns:
//   - *SphereGeometry: the built geometry
//   - error: error if the resolution is invalid
func NewSphereGeometry(radius float32, resolution int) (*SphereGeometry, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}

	widthSegments := resolution
	heightSegments := resolution / 2
	phiStart := -math.Pi / 2

	// indexed grid, (heightSegments+1) rows of (widthSegments+1) vertices
	stride := widthSegments + 1
	gridPos := make([][3]float32, 0, stride*(heightSegments+1))
	gridUV := make([][2]float32, 0, stride*(heightSegments+1))
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		uOffset := 0.0
		switch iy {
		case 0:
			uOffset = 0.5 / float64(widthSegments)
		case heightSegments:
			uOffset = -0.5 / float64(widthSegments)
		}

		theta := v * math.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := phiStart + u*2*math.Pi
			x := -float64(radius) * math.Cos(phi) * math.Sin(theta)
			y := float64(radius) * math.Cos(theta)
			z := float64(radius) * math.Sin(phi) * math.Sin(theta)
			gridPos = append(gridPos, [3]float32{float32(-x), float32(y), float32(z)})
			gridUV = append(gridUV, [2]float32{float32(u + uOffset), float32(1 - v)})
		}
	}

	vertexCount := faceVertexCount(resolution)
	g := &SphereGeometry{
		Radius:       radius,
		Resolution:   resolution,
		Positions:    make([]float32, 0, vertexCount*3),
		UVs:          make([]float32, 0, vertexCount*2),
		Groups:       make([]Group, 0, resolution*heightSegments),
		groupByStart: make(map[int]int, resolution*heightSegments),
	}

	push := func(indices ...int) {
		for _, i := range indices {
			p, uv := gridPos[i], gridUV[i]
			g.Positions = append(g.Positions, p[0], p[1], p[2])
			g.UVs = append(g.UVs, uv[0], uv[1])
		}
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := iy*stride + ix + 1
			b := iy*stride + ix
			c := (iy+1)*stride + ix
			d := (iy+1)*stride + ix + 1

			start := len(g.Positions) / 3
			switch iy {
			case 0:
				push(b, c, d)
			case heightSegments - 1:
				push(a, b, d)
			default:
				push(a, b, d, b, c, d)
			}

			group := Group{
				Start:         start,
				Count:         len(g.Positions)/3 - start,
				MaterialIndex: len(g.Groups),
			}
			g.groupByStart[start] = len(g.Groups)
			g.Groups = append(g.Groups, group)
		}
	}

	g.OriginalUVs = make([]float32, len(g.UVs))
	copy(g.OriginalUVs, g.UVs)

	if n := g.VertexCount(); n != vertexCount {
		return nil, fmt.Errorf("sphere geometry has %d vertices, expected %d", n, vertexCount)
	}
	return g, nil
}

// VertexCount returns the number of vertices in the flattened buffer.
func (g *SphereGeometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Position returns the position of vertex i.
func (g *SphereGeometry) Position(i int) [3]float32 {
	return [3]float32{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

// GroupAt returns the group starting at vertex start.
//
// Parameters:
//   - start: the first vertex of the group
//
// Returns:
//   - Group: the group
//   - bool: false if no group starts at that vertex
func (g *SphereGeometry) GroupAt(start int) (Group, bool) {
	i, ok := g.groupByStart[start]
	if !ok {
		return Group{}, false
	}
	return g.Groups[i], true
}

// ResetUVs restores the UVs written at construction time.
func (g *SphereGeometry) ResetUVs() {
	copy(g.UVs, g.OriginalUVs)
}

// faceVertexCount is the vertex count of a sphere of the given resolution:
// two pole rows of triangles plus the interior rows of quads.
func faceVertexCount(resolution int) int {
	return 2*resolution*3 + (resolution/2-2)*resolution*6
}
