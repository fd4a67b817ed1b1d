// Package events delivers viewer notifications to typed subscribers.
package events

import (
	"sync"
)

// PositionUpdatedEvent is published when the camera looks in a new direction.
type PositionUpdatedEvent struct {
	// Yaw is the horizontal angle in radians, 0 facing the panorama centre.
	Yaw float64
	// Pitch is the vertical angle in radians, positive looking up.
	Pitch float64
}

// ZoomUpdatedEvent is published when the zoom level changes.
type ZoomUpdatedEvent struct {
	// Zoom is the zoom level in [0, 100].
	Zoom float32
}

// PositionUpdatedSubscriber receives PositionUpdatedEvent notifications.
type PositionUpdatedSubscriber interface {
	OnPositionUpdated(e PositionUpdatedEvent)
}

// ZoomUpdatedSubscriber receives ZoomUpdatedEvent notifications.
type ZoomUpdatedSubscriber interface {
	OnZoomUpdated(e ZoomUpdatedEvent)
}

// Unsubscribe removes a subscription. Calling it more than once does nothing.
type Unsubscribe func()

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	mu *sync.Mutex

	nextID   int
	position map[int]PositionUpdatedSubscriber
	zoom     map[int]ZoomUpdatedSubscriber
	order    []int
}

// Dispatcher fans viewer events out to subscribers.
//
// Events are delivered synchronously on the publishing goroutine, in subscription order.
// Subscribers may unsubscribe from inside a handler.
type Dispatcher interface {
	// SubscribePositionUpdated registers a subscriber for camera position changes.
	//
	// Parameters:
	//   - s: the subscriber
	//
	// Returns:
	//   - Unsubscribe: removes the subscription
	SubscribePositionUpdated(s PositionUpdatedSubscriber) Unsubscribe

	// SubscribeZoomUpdated registers a subscriber for zoom changes.
	//
	// Parameters:
	//   - s: the subscriber
	//
	// Returns:
	//   - Unsubscribe: removes the subscription
	SubscribeZoomUpdated(s ZoomUpdatedSubscriber) Unsubscribe

	// PublishPositionUpdated delivers e to every position subscriber.
	//
	// Parameters:
	//   - e: the event
	PublishPositionUpdated(e PositionUpdatedEvent)

	// PublishZoomUpdated delivers e to every zoom subscriber.
	//
	// Parameters:
	//   - e: the event
	PublishZoomUpdated(e ZoomUpdatedEvent)

	// SubscriberCount returns the number of active subscriptions of both kinds.
	//
	// Returns:
	//   - int: the subscription count
	SubscriberCount() int
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates an empty Dispatcher.
//
// Returns:
//   - Dispatcher: the new dispatcher
func NewDispatcher() Dispatcher {
	return &dispatcher{
		mu:       &sync.Mutex{},
		position: make(map[int]PositionUpdatedSubscriber),
		zoom:     make(map[int]ZoomUpdatedSubscriber),
	}
}

func (d *dispatcher) SubscribePositionUpdated(s PositionUpdatedSubscriber) Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.register()
	d.position[id] = s
	return d.unsubscriber(id)
}

func (d *dispatcher) SubscribeZoomUpdated(s ZoomUpdatedSubscriber) Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.register()
	d.zoom[id] = s
	return d.unsubscriber(id)
}

func (d *dispatcher) PublishPositionUpdated(e PositionUpdatedEvent) {
	d.mu.Lock()
	subs := make([]PositionUpdatedSubscriber, 0, len(d.position))
	for _, id := range d.order {
		if s, ok := d.position[id]; ok {
			subs = append(subs, s)
		}
	}
	d.mu.Unlock()

	for _, s := range subs {
		s.OnPositionUpdated(e)
	}
}

func (d *dispatcher) PublishZoomUpdated(e ZoomUpdatedEvent) {
	d.mu.Lock()
	subs := make([]ZoomUpdatedSubscriber, 0, len(d.zoom))
	for _, id := range d.order {
		if s, ok := d.zoom[id]; ok {
			subs = append(subs, s)
		}
	}
	d.mu.Unlock()

	for _, s := range subs {
		s.OnZoomUpdated(e)
	}
}

func (d *dispatcher) SubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.position) + len(d.zoom)
}

// register allocates a subscription id. Caller must hold mu.
func (d *dispatcher) register() int {
	d.nextID++
	d.order = append(d.order, d.nextID)
	return d.nextID
}

func (d *dispatcher) unsubscriber(id int) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.position, id)
			delete(d.zoom, id)
			for i, o := range d.order {
				if o == id {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
		})
	}
}
