package geometry

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
)

// FaceKind tells how a face is triangulated.
type FaceKind int

const (
	// FaceTop is a triangle touching the north pole (first face row).
	FaceTop FaceKind = iota
	// FaceInterior is a quad made of two triangles.
	FaceInterior
	// FaceBottom is a triangle touching the south pole (last face row).
	FaceBottom
)

// Face is one sphere face covered by a tile, with the region of the tile image it shows.
type Face struct {
	// Col and Row locate the face on the sphere grid.
	Col, Row int
	// Kind is the triangulation of the face.
	Kind FaceKind
	// FirstVertex is the first vertex of the face in the flattened buffer.
	FirstVertex int
	// Left, Right, Top and Bottom bound the face inside the tile image, in [0, 1] UV space.
	Left, Right, Top, Bottom float32
}

// VertexCount returns 3 for pole triangles and 6 for quads.
func (f Face) VertexCount() int {
	if f.Kind == FaceInterior {
		return 6
	}
	return 3
}

// UVs returns the per-vertex UVs of the face, two floats per vertex, in buffer order.
//
// Returns:
//   - []float32: 6 values for pole triangles, 12 for quads
func (f Face) UVs() []float32 {
	l, r, t, b := f.Left, f.Right, f.Top, f.Bottom
	switch f.Kind {
	case FaceTop:
		return []float32{
			(l + r) / 2, t,
			l, b,
			r, b,
		}
	case FaceBottom:
		return []float32{
			r, t,
			l, t,
			(l + r) / 2, b,
		}
	default:
		return []float32{
			r, t,
			l, t,
			r, b,
			l, t,
			l, b,
			r, b,
		}
	}
}

// TileLayout maps the tiles of a cols × rows panorama onto the faces of a sphere of a given resolution.
type TileLayout struct {
	resolution  int
	cols        int
	rows        int
	facesByCol  int
	facesByRow  int
	vertexCount int
}

// NewTileLayout validates a tile grid against a sphere resolution.
//
// Parameters:
//   - resolution: the number of sphere longitude segments (R)
//   - cols: the number of tile columns, a power of two not above R
//   - rows: the number of tile rows, a power of two not above R/2
//
// Returns:
//   - *TileLayout: the layout
//   - error: a *common.ViewerError if a value is invalid
func NewTileLayout(resolution, cols, rows int) (*TileLayout, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}
	if !common.IsPowerOfTwo(cols) {
		return nil, common.NewViewerError(common.ErrNotPowerOfTwo, "panorama cols must be a power of two, got %d", cols)
	}
	if !common.IsPowerOfTwo(rows) {
		return nil, common.NewViewerError(common.ErrNotPowerOfTwo, "panorama rows must be a power of two, got %d", rows)
	}
	if cols > resolution {
		return nil, common.NewViewerError(common.ErrTooManyCols, "panorama cols must not be greater than %d, got %d", resolution, cols)
	}
	if rows > resolution/2 {
		return nil, common.NewViewerError(common.ErrTooManyRows, "panorama rows must not be greater than %d, got %d", resolution/2, rows)
	}

	return &TileLayout{
		resolution:  resolution,
		cols:        cols,
		rows:        rows,
		facesByCol:  resolution / cols,
		facesByRow:  resolution / 2 / rows,
		vertexCount: faceVertexCount(resolution),
	}, nil
}

// Resolution returns the number of sphere longitude segments.
func (l *TileLayout) Resolution() int {
	return l.resolution
}

// Cols returns the number of tile columns.
func (l *TileLayout) Cols() int {
	return l.cols
}

// Rows returns the number of tile rows.
func (l *TileLayout) Rows() int {
	return l.rows
}

// FacesByCol returns the number of face columns covered by one tile.
func (l *TileLayout) FacesByCol() int {
	return l.facesByCol
}

// FacesByRow returns the number of face rows covered by one tile.
func (l *TileLayout) FacesByRow() int {
	return l.facesByRow
}

// VertexCount returns the number of vertices of the sphere geometry.
func (l *TileLayout) VertexCount() int {
	return l.vertexCount
}

// GroupCount returns the number of faces of the sphere.
func (l *TileLayout) GroupCount() int {
	return l.resolution * l.resolution / 2
}

// FirstVertex returns where a face starts in the flattened vertex buffer.
//
// Parameters:
//   - faceCol: the face column, in [0, R)
//   - faceRow: the face row, in [0, R/2), 0 being the north pole row
//
// Returns:
//   - int: the index of the first vertex of the face
func (l *TileLayout) FirstVertex(faceCol, faceRow int) int {
	switch l.faceKind(faceRow) {
	case FaceTop:
		return faceCol * 3
	case FaceBottom:
		return l.vertexCount - l.resolution*3 + faceCol*3
	default:
		return l.resolution*3 + (faceRow-1)*l.resolution*6 + faceCol*6
	}
}

// TileFaces returns the faces covered by a tile, row by row, with their region of the tile image.
//
// Parameters:
//   - col: the tile column
//   - row: the tile row
//
// Returns:
//   - []Face: facesByCol × facesByRow faces
func (l *TileLayout) TileFaces(col, row int) []Face {
	faces := make([]Face, 0, l.facesByCol*l.facesByRow)
	for r := 0; r < l.facesByRow; r++ {
		for c := 0; c < l.facesByCol; c++ {
			faceCol := col*l.facesByCol + c
			faceRow := row*l.facesByRow + r
			faces = append(faces, Face{
				Col:         faceCol,
				Row:         faceRow,
				Kind:        l.faceKind(faceRow),
				FirstVertex: l.FirstVertex(faceCol, faceRow),
				Left:        float32(c) / float32(l.facesByCol),
				Right:       float32(c+1) / float32(l.facesByCol),
				Top:         1 - float32(r)/float32(l.facesByRow),
				Bottom:      1 - float32(r+1)/float32(l.facesByRow),
			})
		}
	}
	return faces
}

// SampleVertices returns the vertices tested to decide whether a tile is visible.
// These are the tile corners (a single pole vertex replaces the two corners on a pole edge),
// the horizontal edge midpoints for wide tiles, the vertical edge midpoints for tall tiles
// and the centre of interior tiles that are both.
//
// Parameters:
//   - col: the tile column
//   - row: the tile row
//
// Returns:
//   - []int: distinct vertex indices, corners first
func (l *TileLayout) SampleVertices(col, row int) []int {
	c0 := col * l.facesByCol
	r0 := row * l.facesByRow
	cLast := c0 + l.facesByCol - 1
	rLast := r0 + l.facesByRow - 1
	cMid := c0 + l.facesByCol/2
	rMid := r0 + l.facesByRow/2

	touchesTop := r0 == 0
	touchesBottom := rLast == l.resolution/2-1
	wide := l.facesByCol >= l.resolution/8
	tall := l.facesByRow >= l.resolution/2/4

	samples := make([]int, 0, 9)
	seen := make(map[int]struct{}, 9)
	add := func(v int) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		samples = append(samples, v)
	}

	if touchesTop {
		add(l.topLeft(c0, r0))
	} else {
		add(l.topLeft(c0, r0))
		add(l.topRight(cLast, r0))
	}
	if touchesBottom {
		add(l.bottomLeft(c0, rLast))
	} else {
		add(l.bottomLeft(c0, rLast))
		add(l.bottomRight(cLast, rLast))
	}

	if wide {
		if !touchesTop {
			add(l.topLeft(cMid, r0))
		}
		if !touchesBottom {
			add(l.bottomLeft(cMid, rLast))
		}
	}
	if tall {
		add(l.topLeft(c0, rMid))
		add(l.topRight(cLast, rMid))
	}
	if wide && tall && !touchesTop && !touchesBottom {
		add(l.topLeft(cMid, rMid))
	}
	return samples
}

func (l *TileLayout) faceKind(faceRow int) FaceKind {
	switch faceRow {
	case 0:
		return FaceTop
	case l.resolution/2 - 1:
		return FaceBottom
	default:
		return FaceInterior
	}
}

// corner vertices of a face, following the triangulation of NewSphereGeometry
// (top row: pole, bottom-left, bottom-right; bottom row: top-right, top-left, pole;
// interior: top-right, top-left, bottom-right, top-left, bottom-left, bottom-right).

func (l *TileLayout) topLeft(faceCol, faceRow int) int {
	first := l.FirstVertex(faceCol, faceRow)
	if l.faceKind(faceRow) == FaceTop {
		return first
	}
	return first + 1
}

func (l *TileLayout) topRight(faceCol, faceRow int) int {
	return l.FirstVertex(faceCol, faceRow)
}

func (l *TileLayout) bottomLeft(faceCol, faceRow int) int {
	first := l.FirstVertex(faceCol, faceRow)
	switch l.faceKind(faceRow) {
	case FaceTop:
		return first + 1
	case FaceBottom:
		return first + 2
	default:
		return first + 4
	}
}

func (l *TileLayout) bottomRight(faceCol, faceRow int) int {
	return l.FirstVertex(faceCol, faceRow) + 2
}
