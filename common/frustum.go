package common

// Plane is the set of points p with Dot3(Normal, p) + Distance = 0.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive values lie on the side the normal points to.
func (pl Plane) DistanceToPoint(p [3]float32) float32 {
	return Dot3(pl.Normal, p) + pl.Distance
}

// Frustum is a view volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// ExtractFrustum derives the clip planes of a view-projection matrix (Gribb/Hartmann).
// Each plane is the sum or difference of the fourth row with one of the first three.
// The near plane is the third row alone since clip depth starts at 0.
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the frustum with unit-length plane normals
func ExtractFrustum(viewProj Mat4) Frustum {
	w := viewProj.Row(3)
	var f Frustum
	for axis := 0; axis < 3; axis++ {
		r := viewProj.Row(axis)
		f.Planes[axis*2] = planeFromRow(w, r, 1)
		f.Planes[axis*2+1] = planeFromRow(w, r, -1)
	}
	// depth is [0, 1] so the near plane is z >= 0 rather than z >= -w
	f.Planes[4] = planeFromRow([4]float32{}, viewProj.Row(2), 1)
	return f
}

func planeFromRow(w, r [4]float32, sign float32) Plane {
	pl := Plane{
		Normal:   [3]float32{w[0] + sign*r[0], w[1] + sign*r[1], w[2] + sign*r[2]},
		Distance: w[3] + sign*r[3],
	}
	l := Length3(pl.Normal)
	if l > 0 {
		pl.Normal = [3]float32{pl.Normal[0] / l, pl.Normal[1] / l, pl.Normal[2] / l}
		pl.Distance /= l
	}
	return pl
}

// ContainsPoint reports whether p is inside every plane. Points on a plane count as inside.
func (f *Frustum) ContainsPoint(p [3]float32) bool {
	for _, pl := range f.Planes {
		if pl.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// FrustumFromCamera builds a frustum from separate projection and view matrices.
func FrustumFromCamera(projection, view Mat4) Frustum {
	return ExtractFrustum(Mul4(projection, view))
}
