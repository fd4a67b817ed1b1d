package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pano/common"
)

const (
	// DefaultConcurrency is the number of tasks allowed to run at once when no option overrides it.
	DefaultConcurrency = 4
	// defaultPoolQueueSize bounds the worker pool backlog. The queue never submits more than
	// its concurrency at once, so this only has to absorb bursts across Clear calls.
	defaultPoolQueueSize = 256
	defaultIdleTimeout   = 30 * time.Second
)

// queue is the implementation of the Queue interface.
type queue struct {
	mu *sync.Mutex

	concurrency int
	tasks       map[string]*Task
	// running holds dispatched tasks until they settle, including ones displaced by Enqueue
	running     map[*Task]struct{}

	pool     worker.DynamicWorkerPool
	ownsPool bool
	nextID   int
	stopped  bool

	logger *slog.Logger
}

// Queue is a priority scheduler with bounded concurrency.
// Tasks are keyed by id, re-prioritised while pending and dispatched largest priority first.
type Queue interface {
	// Enqueue starts tracking a task. A task with the same id replaces the previous one.
	// A replaced running task keeps its concurrency slot until it settles.
	//
	// Parameters:
	//   - t: the task to track
	Enqueue(t *Task)

	// SetPriority updates the priority of a tracked task and re-enables it if it was disabled.
	// Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the task identifier
	//   - priority: the new scheduling weight
	SetPriority(id string, priority float64)

	// DisableAllTasks marks every tracked task that is not running as disabled.
	// Disabled tasks are skipped by Start until SetPriority reconfirms them.
	DisableAllTasks()

	// Start dispatches pending tasks until the concurrency limit is reached.
	// Calling Start while every slot is busy, or with nothing pending, does nothing.
	Start()

	// Clear cancels every tracked task and forgets them.
	// Completions of cleared tasks have no effect on the queue.
	Clear()

	// Len returns the number of tracked tasks, running ones included.
	//
	// Returns:
	//   - int: the tracked task count
	Len() int

	// RunningCount returns the number of tasks currently executing.
	//
	// Returns:
	//   - int: the running task count
	RunningCount() int

	// Task returns a tracked task by id.
	//
	// Parameters:
	//   - id: the task identifier
	//
	// Returns:
	//   - *Task: the task, or nil if it is not tracked
	Task(id string) *Task

	// Concurrency returns the maximum number of tasks allowed to run at once.
	//
	// Returns:
	//   - int: the concurrency limit
	Concurrency() int

	// Stop clears the queue and shuts down its worker pool if the queue created it.
	// A stopped queue ignores Start.
	Stop()
}

var _ Queue = &queue{}

// NewQueue creates a new Queue with the provided options applied.
// The concurrency defaults to DefaultConcurrency and a worker pool of that size is created
// unless one is supplied with WithWorkerPool.
//
// Parameters:
//   - options: a variadic list of QueueBuilderOption functions to configure the Queue
//
// Returns:
//   - Queue: the new queue
func NewQueue(options ...QueueBuilderOption) Queue {
	q := &queue{
		mu:          &sync.Mutex{},
		concurrency: DefaultConcurrency,
		tasks:       make(map[string]*Task),
		running:     make(map[*Task]struct{}),
	}

	for _, option := range options {
		option(q)
	}

	if q.concurrency < 1 {
		q.concurrency = 1
	}
	if q.pool == nil {
		q.pool = worker.NewDynamicWorkerPool(q.concurrency, defaultPoolQueueSize, defaultIdleTimeout)
		q.ownsPool = true
	}
	if q.logger == nil {
		q.logger = common.Logger()
	}
	return q
}

func (q *queue) Enqueue(t *Task) {
	if t == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.tasks[t.id]; ok && prev != t && prev.Status() != StatusRunning {
		prev.Cancel()
	}
	q.tasks[t.id] = t
}

func (q *queue) SetPriority(id string, priority float64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[id]
	if !ok {
		return
	}
	t.setPriority(priority)
	t.status.CompareAndSwap(int32(StatusDisabled), int32(StatusPending))
}

func (q *queue) DisableAllTasks() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tasks {
		t.status.CompareAndSwap(int32(StatusPending), int32(StatusDisabled))
	}
}

func (q *queue) Start() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}

	var dispatch []*Task
	for len(q.running) < q.concurrency {
		next := q.nextPending()
		if next == nil {
			break
		}
		next.setStatus(StatusRunning)
		q.running[next] = struct{}{}
		dispatch = append(dispatch, next)
	}

	submissions := make([]worker.Task, 0, len(dispatch))
	for _, t := range dispatch {
		submissions = append(submissions, q.workerTask(t))
	}
	pool := q.pool
	q.mu.Unlock()

	for _, s := range submissions {
		pool.SubmitTask(s)
	}
}

func (q *queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tasks {
		t.Cancel()
	}
	for t := range q.running {
		t.Cancel()
	}
	q.tasks = make(map[string]*Task)
	q.running = make(map[*Task]struct{})
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *queue) RunningCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.running)
}

func (q *queue) Task(id string) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks[id]
}

func (q *queue) Concurrency() int {
	return q.concurrency
}

func (q *queue) Stop() {
	q.Clear()

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	pool, owns := q.pool, q.ownsPool
	q.mu.Unlock()

	if owns {
		pool.Stop()
	}
}

// nextPending returns the pending task with the largest priority. Caller must hold mu.
func (q *queue) nextPending() *Task {
	var best *Task
	for _, t := range q.tasks {
		if t.Status() != StatusPending {
			continue
		}
		if best == nil || t.Priority() > best.Priority() {
			best = t
		}
	}
	return best
}

// workerTask wraps t for the worker pool. Caller must hold mu.
func (q *queue) workerTask(t *Task) worker.Task {
	q.nextID++
	return worker.Task{
		ID:      q.nextID,
		Payload: t.id,
		Do: func() (any, error) {
			err := t.run()
			q.settle(t, err)
			return nil, err
		},
	}
}

// settle forgets a finished task and refills the free slot. Cancelled tasks were already
// forgotten by Clear or replaced by Enqueue, so they leave the queue untouched.
func (q *queue) settle(t *Task, err error) {
	if t.IsCancelled() {
		q.logger.Debug("task settled after cancellation", "task", t.id)
		return
	}
	if err != nil {
		q.logger.Debug("task failed", "task", t.id, "error", err)
	}

	q.mu.Lock()
	if cur, ok := q.tasks[t.id]; ok && cur == t {
		delete(q.tasks, t.id)
	}
	delete(q.running, t)
	q.mu.Unlock()

	q.Start()
}
