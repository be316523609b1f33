// Package lock provides context-aware mutual exclusion primitives with
// strict FIFO waiter ordering.
//
// Unlike sync.Mutex, the primitives here accept a context so acquisition can
// be abandoned on cancellation, and they guarantee waiters are granted in
// arrival order. Release hands ownership directly to the oldest waiter, so
// there is no window in which a late arrival can barge past the queue.
//
// Mutex is the single-holder case. Semaphore generalizes it to N permits and
// supports acquiring and releasing several permits at once; a large request
// at the head of the queue blocks later, smaller requests rather than being
// skipped for throughput.
package lock
