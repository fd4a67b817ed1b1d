package queue

import (
	"context"
	"math"
	"sync/atomic"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus int32

const (
	// StatusDisabled marks a task that was not reconfirmed by the last refresh. It is never dispatched.
	StatusDisabled TaskStatus = iota - 1
	// StatusPending marks a task waiting for a free slot.
	StatusPending
	// StatusRunning marks a task whose action is executing.
	StatusRunning
	// StatusCancelled marks a task cancelled while pending or running. Its completion is ignored.
	StatusCancelled
	// StatusDone marks a task whose action returned nil.
	StatusDone
	// StatusError marks a task whose action returned an error.
	StatusError
)

func (s TaskStatus) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCancelled:
		return "cancelled"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is the work performed by a Task. The context is cancelled when the task is cancelled,
// but an action that ignores it must still check Task.IsCancelled before producing side effects.
type Action func(ctx context.Context, t *Task) error

// Task is a prioritized unit of work tracked by a Queue.
type Task struct {
	id       string
	priority atomic.Uint64
	status   atomic.Int32
	action   Action

	ctx    context.Context
	cancel context.CancelFunc
}

// NewTask creates a pending Task.
//
// Parameters:
//   - id: the unique identifier of the task within its queue
//   - priority: the scheduling weight, larger values are dispatched first
//   - action: the work to perform
//
// Returns:
//   - *Task: the new task
func NewTask(id string, priority float64, action Action) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		id:     id,
		action: action,
		ctx:    ctx,
		cancel: cancel,
	}
	t.setPriority(priority)
	t.status.Store(int32(StatusPending))
	return t
}

// ID returns the task identifier.
func (t *Task) ID() string {
	return t.id
}

// Priority returns the current scheduling weight.
func (t *Task) Priority() float64 {
	return math.Float64frombits(t.priority.Load())
}

// Status returns the current lifecycle state.
func (t *Task) Status() TaskStatus {
	return TaskStatus(t.status.Load())
}

// IsCancelled reports whether the task was cancelled.
func (t *Task) IsCancelled() bool {
	return t.Status() == StatusCancelled
}

// Cancel marks the task as cancelled and cancels the context passed to its action.
// A cancelled task stays cancelled, whatever its action returns afterwards.
func (t *Task) Cancel() {
	t.status.Store(int32(StatusCancelled))
	t.cancel()
}

func (t *Task) setPriority(priority float64) {
	t.priority.Store(math.Float64bits(priority))
}

func (t *Task) setStatus(s TaskStatus) {
	t.status.Store(int32(s))
}

// run executes the action and records Done or Error unless the task was cancelled meanwhile.
func (t *Task) run() error {
	var err error
	if t.action != nil {
		err = t.action(t.ctx, t)
	}

	final := StatusDone
	if err != nil {
		final = StatusError
	}
	if !t.status.CompareAndSwap(int32(StatusRunning), int32(final)) {
		return err
	}
	t.cancel()
	return err
}
