// Package queue provides a bounded-concurrency priority task queue.
//
// A Queue runs at most its configured number of tasks at once. Waiting tasks
// are dispatched by descending priority; tasks of equal priority run in the
// order they were added. Each Add returns a channel that receives the task's
// result exactly once, so callers can await completion without polling.
//
//	q := queue.New[string](2)
//	out := q.Add(ctx, 5, func(ctx context.Context) (string, error) {
//	    return fetch(ctx)
//	})
//	res := <-out
//
// Pause stops new dispatch without affecting tasks already running; Resume
// re-triggers it. Clear rejects all waiting tasks with ErrCleared.
package queue
