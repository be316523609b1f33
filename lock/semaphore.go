package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrPermitsExceeded is returned when a request asks for more permits than
// the semaphore was created with.
var ErrPermitsExceeded = errors.New("lock: requested permits exceed capacity")

type semWaiter struct {
	n     int
	ready chan struct{}
}

// Semaphore is a counted lock with FIFO waiter ordering. Up to the configured
// number of permits may be held at once, and a single call may acquire or
// release several permits. Waiters are granted strictly in arrival order: a
// large request at the head of the queue blocks later, smaller requests.
type Semaphore struct {
	permits int

	mu        sync.Mutex
	available int
	waiters   []*semWaiter
}

// NewSemaphore creates a semaphore with the given number of permits.
// Permits below 1 default to 1.
func NewSemaphore(permits int) *Semaphore {
	if permits < 1 {
		permits = 1
	}
	return &Semaphore{
		permits:   permits,
		available: permits,
	}
}

// Acquire blocks until n permits are held or ctx is done. It fails
// immediately with ErrPermitsExceeded if n can never be satisfied.
func (s *Semaphore) Acquire(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	if n > s.permits {
		return ErrPermitsExceeded
	}

	s.mu.Lock()
	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		s.mu.Unlock()
		return nil
	}

	w := &semWaiter{n: n, ready: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-w.ready:
			// Granted concurrently with cancellation; hand the permits back.
			s.available += n
			s.notifyLocked()
			s.mu.Unlock()
		default:
			s.removeWaiterLocked(w)
			s.mu.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire acquires n permits without blocking, reporting success. It never
// jumps the queue: if waiters exist, it fails even when permits are free.
func (s *Semaphore) TryAcquire(n int) bool {
	if n < 1 {
		n = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		return true
	}
	return false
}

// Release returns n permits and grants as many queued waiters as the new
// balance allows, in FIFO order.
func (s *Semaphore) Release(n int) {
	if n < 1 {
		n = 1
	}

	s.mu.Lock()
	s.available += n
	if s.available > s.permits {
		s.available = s.permits
	}
	s.notifyLocked()
	s.mu.Unlock()
}

// Available returns the number of free permits.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Permits returns the configured permit capacity.
func (s *Semaphore) Permits() int {
	return s.permits
}

// notifyLocked grants waiters from the head of the queue while permits last.
// Only the head is considered, so a large request is never skipped.
func (s *Semaphore) notifyLocked() {
	for len(s.waiters) > 0 {
		head := s.waiters[0]
		if s.available < head.n {
			return
		}
		s.available -= head.n
		s.waiters = s.waiters[1:]
		close(head.ready)
	}
}

func (s *Semaphore) removeWaiterLocked(w *semWaiter) {
	for i, other := range s.waiters {
		if other == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			// A cancelled head may have been the only thing blocking
			// the next waiter.
			s.notifyLocked()
			return
		}
	}
}
