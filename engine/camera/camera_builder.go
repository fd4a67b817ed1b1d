package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pano/engine/events"
)

type CameraBuilderOption func(*cameraImpl)

// WithFovRange sets the field of view range in degrees.
// The narrowest fov is used at zoom 100 and the widest at zoom 0.
//
// Parameters:
//   - minFov: the narrowest vertical field of view in degrees
//   - maxFov: the widest vertical field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's fov range
func WithFovRange(minFov, maxFov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minFov = minFov * (math.Pi / 180.0)
		c.maxFov = maxFov * (math.Pi / 180.0)
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear sets the camera's near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the camera's far clipping plane distance. It must exceed the sphere radius.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithZoom sets the initial zoom level in [0, 100].
//
// Parameters:
//   - zoom: the zoom level
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's zoom
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = zoom
	}
}

// WithPosition sets the initial look direction.
//
// Parameters:
//   - yaw: horizontal angle in radians (0 = panorama centre)
//   - pitch: vertical angle in radians (0 = horizon)
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's orientation
func WithPosition(yaw, pitch float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.yaw = yaw
		c.pitch = pitch
	}
}

// WithMeshRotation sets the initial XYZ Euler rotation of the panorama sphere.
//
// Parameters:
//   - rotation: the rotation in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the sphere rotation
func WithMeshRotation(rotation [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.meshRotation = rotation
	}
}

// WithDispatcher attaches the dispatcher that receives position and zoom events.
//
// Parameters:
//   - d: the event dispatcher
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's dispatcher
func WithDispatcher(d events.Dispatcher) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.dispatcher = d
	}
}
