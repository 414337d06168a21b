package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"midasfetch/internal/testutil"
)

func TestNew_InvalidWorkers(t *testing.T) {
	_, err := New("test", 0, func() (Worker, error) {
		return &testutil.MockWorker{}, nil
	})
	if err == nil {
		t.Error("New() expected error for zero workers, got nil")
	}
}

func TestRun_Success(t *testing.T) {
	var fetched sync.Map
	factory := func() (Worker, error) {
		return &testutil.MockWorker{
			FetchFunc: func(ctx context.Context, symbol string) error {
				fetched.Store(symbol, true)
				return nil
			},
		}, nil
	}

	coord, err := New("test", 2, factory)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	symbols := []string{"AAA", "BBB", "CCC"}
	outcomes := coord.Run(context.Background(), symbols)

	if len(outcomes) != len(symbols) {
		t.Fatalf("Run() returned %d outcomes, want %d", len(outcomes), len(symbols))
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("Run() outcome for %s has unexpected error: %v", o.Symbol, o.Err)
		}
		if _, ok := fetched.Load(o.Symbol); !ok {
			t.Errorf("Run() reported %s but it was never fetched", o.Symbol)
		}
	}
}

func TestRun_OneFailureDoesNotBlockSiblings(t *testing.T) {
	fetchErr := errors.New("fetch failed")
	factory := func() (Worker, error) {
		return &testutil.MockWorker{
			FetchFunc: func(ctx context.Context, symbol string) error {
				if symbol == "BAD" {
					return fetchErr
				}
				return nil
			},
		}, nil
	}

	coord, err := New("test", 2, factory)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	outcomes := coord.Run(context.Background(), []string{"AAA", "BAD", "BBB", "CCC"})

	if len(outcomes) != 4 {
		t.Fatalf("Run() returned %d outcomes, want 4", len(outcomes))
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if o.Symbol != "BAD" {
				t.Errorf("Run() unexpected failure for %s: %v", o.Symbol, o.Err)
			}
		}
	}
	if failed != 1 {
		t.Errorf("Run() reported %d failures, want 1", failed)
	}
}

func TestRun_CloseOncePerWorkerEvenWhenAllFail(t *testing.T) {
	fetchErr := errors.New("fetch failed")

	var workers []*testutil.MockWorker
	var mu sync.Mutex
	factory := func() (Worker, error) {
		w := testutil.NewMockWorker(fetchErr)
		mu.Lock()
		workers = append(workers, w)
		mu.Unlock()
		return w, nil
	}

	coord, err := New("test", 3, factory)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	symbols := []string{"A", "B", "C", "D", "E", "F"}
	outcomes := coord.Run(context.Background(), symbols)

	for _, o := range outcomes {
		if o.Err == nil {
			t.Errorf("Run() outcome for %s expected error", o.Symbol)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(workers) == 0 {
		t.Fatal("factory was never invoked")
	}
	for i, w := range workers {
		if got := atomic.LoadInt64(&w.Closes); got != 1 {
			t.Errorf("worker %d closed %d times, want exactly 1", i, got)
		}
	}
}

func TestRun_FactoryErrorFailsTasksIndividually(t *testing.T) {
	factoryErr := errors.New("no session")
	coord, err := New("test", 1, func() (Worker, error) {
		return nil, factoryErr
	})
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	outcomes := coord.Run(context.Background(), []string{"AAA", "BBB"})
	if len(outcomes) != 2 {
		t.Fatalf("Run() returned %d outcomes, want 2", len(outcomes))
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err, factoryErr) {
			t.Errorf("Run() outcome for %s = %v, want factory error", o.Symbol, o.Err)
		}
	}
}

func TestRun_NoSymbols(t *testing.T) {
	coord, err := New("test", 2, func() (Worker, error) {
		t.Error("factory should not be invoked for an empty batch")
		return &testutil.MockWorker{}, nil
	})
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	if outcomes := coord.Run(context.Background(), nil); len(outcomes) != 0 {
		t.Errorf("Run() returned %d outcomes for empty batch, want 0", len(outcomes))
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var once sync.Once
	factory := func() (Worker, error) {
		return &testutil.MockWorker{
			FetchFunc: func(ctx context.Context, symbol string) error {
				once.Do(func() { close(started) })
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(5 * time.Second):
					return nil
				}
			},
		}, nil
	}

	coord, err := New("test", 1, factory)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	go func() {
		<-started
		cancel()
	}()

	done := make(chan []Outcome, 1)
	go func() {
		done <- coord.Run(ctx, []string{"AAA", "BBB", "CCC"})
	}()

	select {
	case outcomes := <-done:
		// The in-flight task completes with a cancellation error; symbols
		// never dispatched produce no outcome.
		if len(outcomes) == 0 {
			t.Error("Run() returned no outcomes, want at least the in-flight task")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
