package common

import "math"

// Length3 returns the Euclidean length of a 3-component vector.
//
// Parameters:
//   - v: the vector
//
// Returns:
//   - float32: the vector length
func Length3(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

// Dot3 returns the dot product of two 3-component vectors.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// AngleBetween returns the angle in radians between two vectors.
// If either vector has zero length the angle is π/2.
//
// Parameters:
//   - a, b: the vectors to compare
//
// Returns:
//   - float64: the angle in radians, in [0, π]
func AngleBetween(a, b [3]float32) float64 {
	denominator := math.Sqrt(float64(Dot3(a, a)) * float64(Dot3(b, b)))
	if denominator == 0 {
		return math.Pi / 2
	}
	theta := float64(Dot3(a, b)) / denominator
	return math.Acos(math.Max(-1, math.Min(1, theta)))
}

// RotateEulerXYZ rotates a point by Euler angles applied in X, Y, Z order
// (the rotation matrix is Rx * Ry * Rz).
//
// Parameters:
//   - v: the point to rotate
//   - rotation: the rotation angles around X, Y and Z in radians
//
// Returns:
//   - [3]float32: the rotated point
func RotateEulerXYZ(v [3]float32, rotation [3]float32) [3]float32 {
	if rotation == [3]float32{} {
		return v
	}

	a := math.Cos(float64(rotation[0]))
	b := math.Sin(float64(rotation[0]))
	c := math.Cos(float64(rotation[1]))
	d := math.Sin(float64(rotation[1]))
	e := math.Cos(float64(rotation[2]))
	f := math.Sin(float64(rotation[2]))

	ae, af, be, bf := a*e, a*f, b*e, b*f

	m00, m01, m02 := c*e, -c*f, d
	m10, m11, m12 := af+be*d, ae-bf*d, -b*c
	m20, m21, m22 := bf-ae*d, be+af*d, a*c

	x, y, z := float64(v[0]), float64(v[1]), float64(v[2])
	return [3]float32{
		float32(m00*x + m01*y + m02*z),
		float32(m10*x + m11*y + m12*z),
		float32(m20*x + m21*y + m22*z),
	}
}

// SphericalToDirection converts a longitude/latitude pair into a point on a sphere.
// Longitude 0 faces the horizontal centre of an equirectangular sphere (+Z), positive
// longitudes turn right (towards -X) and positive latitudes look up.
//
// Parameters:
//   - longitude: horizontal angle in radians
//   - latitude: vertical angle in radians, in [-π/2, π/2]
//   - radius: the sphere radius
//
// Returns:
//   - [3]float32: the point on the sphere
func SphericalToDirection(longitude, latitude, radius float64) [3]float32 {
	return [3]float32{
		float32(-radius * math.Cos(latitude) * math.Sin(longitude)),
		float32(radius * math.Sin(latitude)),
		float32(radius * math.Cos(latitude) * math.Cos(longitude)),
	}
}

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Cross3 returns the cross product a × b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize3 scales v to unit length. A zero vector is returned unchanged.
func Normalize3(v [3]float32) [3]float32 {
	l := Length3(v)
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
