package lock

import (
	"context"
	"sync"
)

// Mutex is a context-aware mutual exclusion lock with a FIFO waiter queue.
// The zero value is not usable; create one with NewMutex.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

// NewMutex creates an unlocked mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// Acquire blocks until the lock is held or ctx is done. Waiters are granted
// strictly in arrival order.
func (m *Mutex) Acquire(ctx context.Context) error {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	m.waiters = append(m.waiters, ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		select {
		case <-ready:
			// The grant raced with cancellation; pass ownership on.
			m.mu.Unlock()
			m.Release()
		default:
			m.removeWaiterLocked(ready)
			m.mu.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire acquires the lock without blocking, reporting success.
func (m *Mutex) TryAcquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Release unlocks the mutex. If a waiter exists, ownership transfers directly
// to the oldest one and the mutex never observably unlocks in between.
func (m *Mutex) Release() {
	m.mu.Lock()
	if len(m.waiters) > 0 {
		ready := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()
		close(ready)
		return
	}
	m.locked = false
	m.mu.Unlock()
}

// WithLock runs fn while holding the lock, releasing it when fn returns.
func (m *Mutex) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.Acquire(ctx); err != nil {
		return err
	}
	defer m.Release()
	return fn(ctx)
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

func (m *Mutex) removeWaiterLocked(ready chan struct{}) {
	for i, w := range m.waiters {
		if w == ready {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}
