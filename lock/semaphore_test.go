package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewSemaphore_MinimumPermits(t *testing.T) {
	s := NewSemaphore(0)
	if s.Permits() != 1 {
		t.Errorf("Permits() = %d, want 1", s.Permits())
	}
}

func TestSemaphore_AcquireRelease(t *testing.T) {
	s := NewSemaphore(3)

	if err := s.Acquire(context.Background(), 2); err != nil {
		t.Fatalf("Acquire(2) = %v, want nil", err)
	}
	if got := s.Available(); got != 1 {
		t.Errorf("Available() = %d, want 1", got)
	}

	s.Release(2)
	if got := s.Available(); got != 3 {
		t.Errorf("Available() = %d, want 3", got)
	}
}

func TestSemaphore_PermitsExceeded(t *testing.T) {
	s := NewSemaphore(2)

	if err := s.Acquire(context.Background(), 3); !errors.Is(err, ErrPermitsExceeded) {
		t.Errorf("Acquire(3) = %v, want ErrPermitsExceeded", err)
	}
}

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	s := NewSemaphore(2)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(context.Background(), 1); err != nil {
				t.Errorf("Acquire() = %v", err)
				return
			}
			defer s.Release(1)

			n := active.Add(1)
			for {
				old := maxActive.Load()
				if n <= old || maxActive.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxActive.Load(); got > 2 {
		t.Errorf("max concurrent holders = %d, want <= 2", got)
	}
	if got := s.Available(); got != 2 {
		t.Errorf("Available() = %d, want 2", got)
	}
}

func TestSemaphore_FIFONoSkip(t *testing.T) {
	s := NewSemaphore(2)
	s.Acquire(context.Background(), 2)

	bigGranted := make(chan struct{})
	go func() {
		s.Acquire(context.Background(), 2)
		close(bigGranted)
	}()
	time.Sleep(10 * time.Millisecond)

	smallGranted := make(chan struct{})
	go func() {
		s.Acquire(context.Background(), 1)
		close(smallGranted)
	}()
	time.Sleep(10 * time.Millisecond)

	// One permit back: the big head request still blocks, and the small
	// request behind it must not be granted out of order.
	s.Release(1)
	select {
	case <-bigGranted:
		t.Fatal("big request granted with only 1 permit available")
	case <-smallGranted:
		t.Fatal("small request skipped ahead of the queue head")
	case <-time.After(30 * time.Millisecond):
	}

	s.Release(1)
	select {
	case <-bigGranted:
	case <-time.After(time.Second):
		t.Fatal("big request not granted after enough permits freed")
	}

	s.Release(2)
	select {
	case <-smallGranted:
	case <-time.After(time.Second):
		t.Fatal("small request not granted after the head cleared")
	}
}

func TestSemaphore_TryAcquireRespectsQueue(t *testing.T) {
	s := NewSemaphore(2)
	s.Acquire(context.Background(), 2)

	go s.Acquire(context.Background(), 2)
	time.Sleep(10 * time.Millisecond)

	s.Release(1)

	// A permit is free but a waiter is queued; TryAcquire must not barge.
	if s.TryAcquire(1) {
		t.Error("TryAcquire() = true while waiters are queued")
	}
	s.Release(1)
}

func TestSemaphore_AcquireCancelledUnblocksQueue(t *testing.T) {
	s := NewSemaphore(1)
	s.Acquire(context.Background(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		cancelled <- s.Acquire(ctx, 1)
	}()
	time.Sleep(10 * time.Millisecond)

	granted := make(chan struct{})
	go func() {
		s.Acquire(context.Background(), 1)
		close(granted)
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Fatalf("Acquire() = %v, want context.Canceled", err)
	}

	s.Release(1)
	select {
	case <-granted:
	case <-time.After(time.Second):
		t.Fatal("second waiter not granted after cancellation of the head")
	}
	s.Release(1)
}
