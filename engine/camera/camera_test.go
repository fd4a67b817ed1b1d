package camera

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/events"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestCameraDirection(t *testing.T) {
	tests := []struct {
		yaw, pitch float64
		want       [3]float32
	}{
		{0, 0, [3]float32{0, 0, 1}},
		{math.Pi / 2, 0, [3]float32{-1, 0, 0}},
		{0, math.Pi / 2, [3]float32{0, 1, 0}},
	}
	for _, tt := range tests {
		c := NewCamera(WithPosition(tt.yaw, tt.pitch))
		got := c.Direction()
		for i := range got {
			if !near(float64(got[i]), float64(tt.want[i]), 1e-6) {
				t.Errorf("Direction() yaw=%v pitch=%v = %v, want %v", tt.yaw, tt.pitch, got, tt.want)
				break
			}
		}
	}
}

func TestCameraRotateWrapsAndClamps(t *testing.T) {
	c := NewCamera()
	c.Rotate(3*math.Pi/2, 2)
	if got := c.Yaw(); !near(got, -math.Pi/2, 1e-9) {
		t.Errorf("Yaw() = %v, want %v", got, -math.Pi/2)
	}
	if got := c.Pitch(); got != math.Pi/2 {
		t.Errorf("Pitch() = %v, want %v", got, math.Pi/2)
	}
}

func TestCameraZoomMapsFov(t *testing.T) {
	c := NewCamera(WithFovRange(30, 90), WithZoom(0))
	if got := c.Fov(); !near(float64(got), math.Pi/2, 1e-6) {
		t.Errorf("Fov() at zoom 0 = %v, want π/2", got)
	}
	c.SetZoom(150)
	if got := c.Zoom(); got != MaxZoom {
		t.Errorf("Zoom() = %v, want %v", got, MaxZoom)
	}
	if got := c.Fov(); !near(float64(got), math.Pi/6, 1e-6) {
		t.Errorf("Fov() at zoom 100 = %v, want π/6", got)
	}
}

func TestCameraFrustumFacesLookDirection(t *testing.T) {
	c := NewCamera(WithFovRange(30, 90), WithZoom(0))
	f := common.FrustumFromCamera(c.ProjectionMatrix(), c.ViewMatrix())

	if !f.ContainsPoint([3]float32{0, 0, 10}) {
		t.Error("point in front of the camera is outside the frustum")
	}
	if f.ContainsPoint([3]float32{0, 0, -10}) {
		t.Error("point behind the camera is inside the frustum")
	}
	if f.ContainsPoint([3]float32{0, 10, 1}) {
		t.Error("point straight up is inside a 90° frustum")
	}

	// looking straight up must not degenerate
	c.Rotate(0, math.Pi/2)
	f = common.FrustumFromCamera(c.ProjectionMatrix(), c.ViewMatrix())
	if !f.ContainsPoint([3]float32{0, 10, 0}) {
		t.Error("zenith is outside the frustum when looking up")
	}
}

type positionRecorder struct {
	positions []events.PositionUpdatedEvent
	zooms     []events.ZoomUpdatedEvent
}

func (r *positionRecorder) OnPositionUpdated(e events.PositionUpdatedEvent) {
	r.positions = append(r.positions, e)
}

func (r *positionRecorder) OnZoomUpdated(e events.ZoomUpdatedEvent) {
	r.zooms = append(r.zooms, e)
}

func TestCameraPublishesEvents(t *testing.T) {
	d := events.NewDispatcher()
	r := &positionRecorder{}
	d.SubscribePositionUpdated(r)
	d.SubscribeZoomUpdated(r)

	c := NewCamera(WithDispatcher(d))
	c.Rotate(1, 0.25)
	c.SetZoom(70)
	c.SetMeshRotation([3]float32{0, 0.1, 0})

	if len(r.positions) != 2 {
		t.Fatalf("received %d position events, want 2", len(r.positions))
	}
	if !near(r.positions[0].Yaw, 1, 1e-9) || r.positions[0].Pitch != 0.25 {
		t.Errorf("position event = %+v, want yaw 1 pitch 0.25", r.positions[0])
	}
	if len(r.zooms) != 1 || r.zooms[0].Zoom != 70 {
		t.Errorf("zoom events = %+v, want one with zoom 70", r.zooms)
	}
}

func TestCameraControllerUpdate(t *testing.T) {
	c := NewCamera(WithZoom(50))
	cc := NewCameraController(c, WithPanSpeed(0.5), WithZoomSpeed(10))

	cc.Update(2 * time.Second)
	if got := c.Yaw(); !near(got, 1, 1e-9) {
		t.Errorf("Yaw() = %v, want 1", got)
	}
	if got := c.Zoom(); got != 70 {
		t.Errorf("Zoom() = %v, want 70", got)
	}

	cc.SetPanSpeed(0)
	cc.SetZoomSpeed(0)
	cc.Update(time.Second)
	if got := c.Yaw(); !near(got, 1, 1e-9) {
		t.Errorf("Yaw() after stopping = %v, want 1", got)
	}
}
