package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_MinimumConcurrency(t *testing.T) {
	q := New[int](0)
	if q.Concurrency() != 1 {
		t.Errorf("Concurrency() = %d, want 1", q.Concurrency())
	}
}

func TestQueue_DeliversResult(t *testing.T) {
	q := New[string](1)

	out := q.Add(context.Background(), 0, func(ctx context.Context) (string, error) {
		return "done", nil
	})

	res := <-out
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if res.Value != "done" {
		t.Errorf("Value = %q, want done", res.Value)
	}
}

func TestQueue_DeliversError(t *testing.T) {
	q := New[int](1)
	testErr := errors.New("boom")

	out := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
		return 0, testErr
	})

	if res := <-out; res.Err != testErr {
		t.Errorf("Err = %v, want %v", res.Err, testErr)
	}
}

func TestQueue_BoundsConcurrency(t *testing.T) {
	q := New[int](2)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		out := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
			n := active.Add(1)
			for {
				old := maxActive.Load()
				if n <= old || maxActive.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return 0, nil
		})
		go func() {
			defer wg.Done()
			<-out
		}()
	}
	wg.Wait()

	if got := maxActive.Load(); got > 2 {
		t.Errorf("max concurrent tasks = %d, want <= 2", got)
	}
}

func TestQueue_PriorityOrder(t *testing.T) {
	q := New[int](1)

	release := make(chan struct{})
	started := make(chan struct{})
	blocker := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	})
	<-started

	var order []string
	var orderMu sync.Mutex
	record := func(name string) Task[int] {
		return func(ctx context.Context) (int, error) {
			orderMu.Lock()
			order = append(order, name)
			orderMu.Unlock()
			return 0, nil
		}
	}

	// Queued while the blocker runs: two low-priority tasks first, then a
	// high-priority task that must jump ahead of them.
	lowA := q.Add(context.Background(), 1, record("low-a"))
	lowB := q.Add(context.Background(), 1, record("low-b"))
	high := q.Add(context.Background(), 10, record("high"))

	close(release)
	<-blocker
	<-lowA
	<-lowB
	<-high

	want := []string{"high", "low-a", "low-b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestQueue_PauseStopsDispatch(t *testing.T) {
	q := New[int](1)
	q.Pause()

	ran := make(chan struct{})
	out := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
		close(ran)
		return 0, nil
	})

	select {
	case <-ran:
		t.Fatal("task ran while paused")
	case <-time.After(30 * time.Millisecond):
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}

	q.Resume()
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("task did not run after Resume")
	}
}

func TestQueue_PauseDoesNotAffectRunning(t *testing.T) {
	q := New[int](1)

	release := make(chan struct{})
	started := make(chan struct{})
	out := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 42, nil
	})
	<-started

	q.Pause()
	close(release)

	res := <-out
	if res.Value != 42 {
		t.Errorf("Value = %d, want 42", res.Value)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[int](1)
	q.Pause()

	a := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) { return 1, nil })
	b := q.Add(context.Background(), 0, func(ctx context.Context) (int, error) { return 2, nil })

	q.Clear()

	if res := <-a; !errors.Is(res.Err, ErrCleared) {
		t.Errorf("first task Err = %v, want ErrCleared", res.Err)
	}
	if res := <-b; !errors.Is(res.Err, ErrCleared) {
		t.Errorf("second task Err = %v, want ErrCleared", res.Err)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_CancelledContextSkipsTask(t *testing.T) {
	q := New[int](1)
	q.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	out := q.Add(ctx, 0, func(ctx context.Context) (int, error) {
		called = true
		return 0, nil
	})

	q.Resume()
	res := <-out
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if called {
		t.Error("task ran despite cancelled context")
	}
}

func TestQueue_Running(t *testing.T) {
	q := New[int](2)

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	var outs []<-chan Result[int]
	for i := 0; i < 2; i++ {
		outs = append(outs, q.Add(context.Background(), 0, func(ctx context.Context) (int, error) {
			started.Done()
			<-release
			return 0, nil
		}))
	}
	started.Wait()

	if got := q.Running(); got != 2 {
		t.Errorf("Running() = %d, want 2", got)
	}

	close(release)
	for _, out := range outs {
		<-out
	}
	if got := q.Running(); got != 0 {
		t.Errorf("Running() after completion = %d, want 0", got)
	}
}
