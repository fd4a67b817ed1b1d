package common

import (
	"math"
	"unsafe"
)

// Mat4 is a 4x4 matrix stored column-major, element (row, col) lives at col*4+row.
type Mat4 [16]float32

// Identity4 returns the identity matrix.
func Identity4() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// At returns the element at the given row and column.
func (m Mat4) At(row, col int) float32 {
	return m[col*4+row]
}

// Row returns one row of the matrix.
func (m Mat4) Row(row int) [4]float32 {
	return [4]float32{m[row], m[4+row], m[8+row], m[12+row]}
}

// SliceToBytes reinterprets a slice as raw bytes for GPU buffer uploads.
// The returned slice aliases data.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte view of data, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}

// Mul4 returns a * b.
func Mul4(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a.At(row, k) * b.At(k, col)
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Perspective builds a right-handed perspective projection mapping depth to [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near, far: clip distances, 0 < near < far
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	depth := 1 / (near - far)

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far * depth
	m[11] = -1
	m[14] = near * far * depth
	return m
}

// LookAt builds a view matrix for an eye looking at center.
//
// Parameters:
//   - eye: the camera position
//   - center: the point being looked at
//   - up: the approximate up direction
//
// Returns:
//   - Mat4: the world-to-view matrix
func LookAt(eye, center, up [3]float32) Mat4 {
	back := Normalize3(Sub3(eye, center))
	right := Normalize3(Cross3(up, back))
	trueUp := Cross3(back, right)

	m := Identity4()
	for i, axis := range [3][3]float32{right, trueUp, back} {
		m[i], m[4+i], m[8+i] = axis[0], axis[1], axis[2]
		m[12+i] = -Dot3(axis, eye)
	}
	return m
}
