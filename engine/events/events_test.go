package events

import (
	"testing"
)

type recorder struct {
	positions []PositionUpdatedEvent
	zooms     []ZoomUpdatedEvent
	onPos     func()
}

func (r *recorder) OnPositionUpdated(e PositionUpdatedEvent) {
	r.positions = append(r.positions, e)
	if r.onPos != nil {
		r.onPos()
	}
}

func (r *recorder) OnZoomUpdated(e ZoomUpdatedEvent) {
	r.zooms = append(r.zooms, e)
}

func TestDispatcherDeliversTypedEvents(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	d.SubscribePositionUpdated(r)
	d.SubscribeZoomUpdated(r)

	d.PublishPositionUpdated(PositionUpdatedEvent{Yaw: 1, Pitch: 0.5})
	d.PublishZoomUpdated(ZoomUpdatedEvent{Zoom: 40})

	if len(r.positions) != 1 || r.positions[0].Yaw != 1 {
		t.Errorf("positions = %+v, want one event with yaw 1", r.positions)
	}
	if len(r.zooms) != 1 || r.zooms[0].Zoom != 40 {
		t.Errorf("zooms = %+v, want one event with zoom 40", r.zooms)
	}
	if got := d.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", got)
	}
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	unsubscribe := d.SubscribePositionUpdated(r)

	unsubscribe()
	unsubscribe()
	d.PublishPositionUpdated(PositionUpdatedEvent{})

	if len(r.positions) != 0 {
		t.Errorf("received %d events after unsubscribing, want 0", len(r.positions))
	}
	if got := d.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

func TestDispatcherUnsubscribeFromHandler(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	var unsubscribe Unsubscribe
	r.onPos = func() { unsubscribe() }
	unsubscribe = d.SubscribePositionUpdated(r)

	d.PublishPositionUpdated(PositionUpdatedEvent{})
	d.PublishPositionUpdated(PositionUpdatedEvent{})

	if len(r.positions) != 1 {
		t.Errorf("received %d events, want 1", len(r.positions))
	}
}
