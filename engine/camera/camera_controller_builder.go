package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPanSpeed sets the horizontal speed.
//
// Parameters:
//   - speed: radians per second, positive turns right
//
// Returns:
//   - CameraControllerOption: functional option to set the pan speed
func WithPanSpeed(speed float64) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}

// WithPitchSpeed sets the vertical speed.
//
// Parameters:
//   - speed: radians per second, positive looks up
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch speed
func WithPitchSpeed(speed float64) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitchSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed.
//
// Parameters:
//   - speed: zoom levels per second, positive zooms in
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
