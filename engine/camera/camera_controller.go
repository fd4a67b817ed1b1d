package camera

import (
	"sync"
	"time"
)

// cameraControllerImpl is the implementation of the CameraController interface.
type cameraControllerImpl struct {
	mu *sync.Mutex

	camera Camera

	panSpeed   float64 // radians per second
	pitchSpeed float64 // radians per second
	zoomSpeed  float32 // zoom levels per second
}

// CameraController moves a Camera at constant speeds, once per tick.
// It stands in for user input when the viewer runs unattended.
type CameraController interface {
	// Camera retrieves the controlled camera.
	//
	// Returns:
	//   - Camera: the camera
	Camera() Camera

	// Update advances the camera by the elapsed time.
	// Nothing is published when every speed is zero.
	//
	// Parameters:
	//   - dt: the time elapsed since the previous update
	Update(dt time.Duration)

	// PanSpeed retrieves the horizontal speed in radians per second.
	//
	// Returns:
	//   - float64: the pan speed
	PanSpeed() float64

	// SetPanSpeed sets the horizontal speed in radians per second. Positive values turn right.
	//
	// Parameters:
	//   - speed: the pan speed
	SetPanSpeed(speed float64)

	// ZoomSpeed retrieves the zoom speed in levels per second.
	//
	// Returns:
	//   - float32: the zoom speed
	ZoomSpeed() float32

	// SetZoomSpeed sets the zoom speed in levels per second. Positive values zoom in.
	//
	// Parameters:
	//   - speed: the zoom speed
	SetZoomSpeed(speed float32)
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller for cam with the provided options applied.
//
// Parameters:
//   - cam: the camera to drive, must not be nil
//   - options: variadic list of CameraControllerOption functions
//
// Returns:
//   - CameraController: the new controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	if cam == nil {
		panic("camera cannot be nil")
	}
	cc := &cameraControllerImpl{
		mu:     &sync.Mutex{},
		camera: cam,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.camera
}

func (cc *cameraControllerImpl) Update(dt time.Duration) {
	cc.mu.Lock()
	pan, pitch, zoom := cc.panSpeed, cc.pitchSpeed, cc.zoomSpeed
	cc.mu.Unlock()

	secs := dt.Seconds()
	if pan != 0 || pitch != 0 {
		cc.camera.Pan(pan*secs, pitch*secs)
	}
	if zoom != 0 {
		cc.camera.SetZoom(cc.camera.Zoom() + zoom*float32(secs))
	}
}

func (cc *cameraControllerImpl) PanSpeed() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

func (cc *cameraControllerImpl) SetPanSpeed(speed float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.panSpeed = speed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) SetZoomSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.zoomSpeed = speed
}
