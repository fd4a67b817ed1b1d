package adapter

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/geometry"
)

// evaluateVisibility returns the tiles with at least one sample vertex inside the camera frustum.
//
// Each tile is sampled at its corners, plus its edge midpoints and centre when it is large enough
// that all its corners could sit outside the frustum while its middle is in view.
// The angle of a visible tile is measured from its first sample inside the frustum, and doubled
// for tiles of the first and last rows.
func evaluateVisibility(viewer ViewerState, layout *geometry.TileLayout, geom *geometry.SphereGeometry) []Tile {
	frustum := common.FrustumFromCamera(viewer.ProjectionMatrix(), viewer.ViewMatrix())
	rotation := viewer.MeshRotation()
	direction := viewer.Direction()

	var tiles []Tile
	for col := 0; col < layout.Cols(); col++ {
		for row := 0; row < layout.Rows(); row++ {
			for _, v := range layout.SampleVertices(col, row) {
				p := common.RotateEulerXYZ(geom.Position(v), rotation)
				if !frustum.ContainsPoint(p) {
					continue
				}

				angle := common.AngleBetween(p, direction)
				if row == 0 || row == layout.Rows()-1 {
					angle *= 2
				}
				tiles = append(tiles, Tile{Col: col, Row: row, Angle: angle})
				break
			}
		}
	}
	return tiles
}
