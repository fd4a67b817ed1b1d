package queue

import (
	"log/slog"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// QueueBuilderOption is a functional option for configuring a Queue via NewQueue.
type QueueBuilderOption func(*queue)

// WithConcurrency is an option builder that sets how many tasks may run at once.
// Values below 1 are raised to 1.
//
// Parameters:
//   - n: the concurrency limit
//
// Returns:
//   - QueueBuilderOption: a function that applies the concurrency option to a queue
func WithConcurrency(n int) QueueBuilderOption {
	return func(q *queue) {
		q.concurrency = n
	}
}

// WithWorkerPool is an option builder that runs task actions on an existing worker pool.
// The queue does not stop a pool it did not create. The pool must allow at least the
// queue's concurrency in parallel workers, otherwise dispatched tasks wait for a worker.
//
// Parameters:
//   - pool: the worker pool to submit actions to
//
// Returns:
//   - QueueBuilderOption: a function that applies the worker pool option to a queue
func WithWorkerPool(pool worker.DynamicWorkerPool) QueueBuilderOption {
	return func(q *queue) {
		q.pool = pool
		q.ownsPool = false
	}
}

// WithLogger is an option builder that sets the logger used for task failures.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - QueueBuilderOption: a function that applies the logger option to a queue
func WithLogger(l *slog.Logger) QueueBuilderOption {
	return func(q *queue) {
		q.logger = l
	}
}
