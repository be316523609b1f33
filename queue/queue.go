package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrCleared is delivered to tasks that were removed by Clear before running.
var ErrCleared = errors.New("queue: task cleared before execution")

// Task produces a value or fails. It receives the context passed to Add.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the settled outcome of a task.
type Result[T any] struct {
	Value T
	Err   error
}

type item[T any] struct {
	ctx      context.Context
	fn       Task[T]
	priority int
	out      chan Result[T]
}

// Queue runs tasks with bounded concurrency, dispatching waiting tasks by
// descending priority and preserving insertion order among equal priorities.
type Queue[T any] struct {
	concurrency int

	mu      sync.Mutex
	items   []*item[T]
	running int
	paused  bool
}

// New creates a queue that runs at most concurrency tasks at once.
// Concurrency below 1 defaults to 1.
func New[T any](concurrency int) *Queue[T] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Queue[T]{concurrency: concurrency}
}

// Add enqueues fn at the given priority and returns a channel that receives
// its result exactly once. Higher priorities are dispatched first. If ctx is
// already done when the task would start, the task is not invoked and the
// context error is delivered instead.
func (q *Queue[T]) Add(ctx context.Context, priority int, fn Task[T]) <-chan Result[T] {
	it := &item[T]{
		ctx:      ctx,
		fn:       fn,
		priority: priority,
		out:      make(chan Result[T], 1),
	}

	q.mu.Lock()
	// Stable insert: after every item of priority >= this one.
	idx := len(q.items)
	for i, other := range q.items {
		if other.priority < priority {
			idx = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = it
	q.mu.Unlock()

	q.dispatch()
	return it.out
}

// dispatch starts waiting tasks while capacity allows.
func (q *Queue[T]) dispatch() {
	q.mu.Lock()
	for !q.paused && q.running < q.concurrency && len(q.items) > 0 {
		it := q.items[0]
		q.items = q.items[1:]
		q.running++
		go q.run(it)
	}
	q.mu.Unlock()
}

func (q *Queue[T]) run(it *item[T]) {
	var res Result[T]
	if err := it.ctx.Err(); err != nil {
		res = Result[T]{Err: err}
	} else {
		v, err := it.fn(it.ctx)
		res = Result[T]{Value: v, Err: err}
	}

	q.mu.Lock()
	q.running--
	q.mu.Unlock()

	it.out <- res
	q.dispatch()
}

// Pause stops dispatching new tasks. Tasks already running are unaffected.
func (q *Queue[T]) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume restarts dispatching.
func (q *Queue[T]) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.dispatch()
}

// Paused reports whether dispatch is currently suspended.
func (q *Queue[T]) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Clear removes every waiting task, delivering ErrCleared to each. Running
// tasks are unaffected.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	cleared := q.items
	q.items = nil
	q.mu.Unlock()

	for _, it := range cleared {
		it.out <- Result[T]{Err: ErrCleared}
	}
}

// Len returns the number of tasks waiting to run.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Running returns the number of tasks currently executing.
func (q *Queue[T]) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Concurrency returns the configured concurrency limit.
func (q *Queue[T]) Concurrency() int {
	return q.concurrency
}
