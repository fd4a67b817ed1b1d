package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/events"
)

// MaxZoom is the upper bound of the zoom scale.
const MaxZoom = 100

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	yaw   float64
	pitch float64
	zoom  float32

	minFov float32
	maxFov float32
	aspect float32
	near   float32
	far    float32

	meshRotation [3]float32

	direction            [3]float32
	viewMatrix           common.Mat4
	projectionMatrix     common.Mat4
	viewProjectionMatrix common.Mat4

	dispatcher events.Dispatcher
}

// Camera is a panorama camera fixed at the centre of the sphere.
//
// It looks in the direction given by a yaw and a pitch, and its vertical field of view is
// derived from a zoom level between 0 (widest, maxFov) and 100 (narrowest, minFov). When a
// Dispatcher is attached, rotations publish PositionUpdated events and zoom changes publish
// ZoomUpdated events, after the camera state has been updated.
type Camera interface {
	// Yaw retrieves the horizontal angle in radians, 0 facing the panorama centre, in (-π, π].
	//
	// Returns:
	//   - float64: the yaw
	Yaw() float64

	// Pitch retrieves the vertical angle in radians, in [-π/2, π/2].
	//
	// Returns:
	//   - float64: the pitch
	Pitch() float64

	// Zoom retrieves the zoom level in [0, 100].
	//
	// Returns:
	//   - float32: the zoom level
	Zoom() float32

	// Fov retrieves the current vertical field of view in radians.
	//
	// Returns:
	//   - float32: the field of view
	Fov() float32

	// Aspect retrieves the viewport aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Direction retrieves the unit look direction.
	//
	// Returns:
	//   - [3]float32: the direction
	Direction() [3]float32

	// MeshRotation retrieves the XYZ Euler rotation applied to the panorama sphere.
	//
	// Returns:
	//   - [3]float32: the rotation in radians
	MeshRotation() [3]float32

	// ViewMatrix retrieves the world-to-camera matrix (the inverse of the camera world matrix).
	//
	// Returns:
	//   - common.Mat4: the column-major view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix retrieves the perspective projection matrix.
	//
	// Returns:
	//   - common.Mat4: the column-major projection matrix
	ProjectionMatrix() common.Mat4

	// ViewProjectionMatrix retrieves ProjectionMatrix × ViewMatrix.
	//
	// Returns:
	//   - common.Mat4: the column-major view-projection matrix
	ViewProjectionMatrix() common.Mat4

	// Rotate points the camera to an absolute yaw and pitch.
	// Yaw is wrapped to (-π, π] and pitch clamped to [-π/2, π/2].
	//
	// Parameters:
	//   - yaw: the horizontal angle in radians
	//   - pitch: the vertical angle in radians
	Rotate(yaw, pitch float64)

	// Pan rotates the camera relatively to its current orientation.
	//
	// Parameters:
	//   - deltaYaw: the horizontal offset in radians
	//   - deltaPitch: the vertical offset in radians
	Pan(deltaYaw, deltaPitch float64)

	// SetZoom sets the zoom level, clamped to [0, 100].
	//
	// Parameters:
	//   - zoom: the zoom level
	SetZoom(zoom float32)

	// SetAspect sets the viewport aspect ratio.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetMeshRotation sets the XYZ Euler rotation of the panorama sphere, used for pose correction.
	// It publishes a PositionUpdated event since the visible part of the panorama changes.
	//
	// Parameters:
	//   - rotation: the rotation in radians
	SetMeshRotation(rotation [3]float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new panorama Camera with the provided options applied.
// Defaults: fov range 30°–90°, zoom 50, aspect 1, near 0.1, far 100, looking at the panorama centre.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the Camera
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		zoom:   50,
		minFov: 30 * (math.Pi / 180.0),
		maxFov: 90 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.yaw = wrapAngle(c.yaw)
	c.pitch = clampPitch(c.pitch)
	c.zoom = common.Clamp(c.zoom, 0, MaxZoom)
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Yaw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

func (c *cameraImpl) Pitch() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitch
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov()
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Direction() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

func (c *cameraImpl) MeshRotation() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meshRotation
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Rotate(yaw, pitch float64) {
	c.mu.Lock()
	c.yaw = wrapAngle(yaw)
	c.pitch = clampPitch(pitch)
	c.updateMatrices()
	e := events.PositionUpdatedEvent{Yaw: c.yaw, Pitch: c.pitch}
	d := c.dispatcher
	c.mu.Unlock()

	if d != nil {
		d.PublishPositionUpdated(e)
	}
}

func (c *cameraImpl) Pan(deltaYaw, deltaPitch float64) {
	c.mu.Lock()
	yaw, pitch := c.yaw+deltaYaw, c.pitch+deltaPitch
	c.mu.Unlock()
	c.Rotate(yaw, pitch)
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	c.zoom = common.Clamp(zoom, 0, MaxZoom)
	c.updateMatrices()
	e := events.ZoomUpdatedEvent{Zoom: c.zoom}
	d := c.dispatcher
	c.mu.Unlock()

	if d != nil {
		d.PublishZoomUpdated(e)
	}
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetMeshRotation(rotation [3]float32) {
	c.mu.Lock()
	c.meshRotation = rotation
	e := events.PositionUpdatedEvent{Yaw: c.yaw, Pitch: c.pitch}
	d := c.dispatcher
	c.mu.Unlock()

	if d != nil {
		d.PublishPositionUpdated(e)
	}
}

// fov maps the zoom level linearly from maxFov (zoom 0) to minFov (zoom 100). Caller must hold mu.
func (c *cameraImpl) fov() float32 {
	return c.maxFov + (c.minFov-c.maxFov)*c.zoom/MaxZoom
}

// updateMatrices recomputes the direction and matrices. Caller must hold mu.
func (c *cameraImpl) updateMatrices() {
	c.direction = common.SphericalToDirection(c.yaw, c.pitch, 1)
	// the up vector is the direction rotated a quarter turn upwards, so it never degenerates at the poles
	up := common.SphericalToDirection(c.yaw, c.pitch+math.Pi/2, 1)

	c.viewMatrix = common.LookAt([3]float32{}, c.direction, up)
	c.projectionMatrix = common.Perspective(c.fov(), c.aspect, c.near, c.far)
	c.viewProjectionMatrix = common.Mul4(c.projectionMatrix, c.viewMatrix)
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clampPitch(p float64) float64 {
	return common.Clamp(p, -math.Pi/2, math.Pi/2)
}
