// Package coordinator runs one source's fetch batch across a bounded worker
// pool. Tasks are dispatched one per pending symbol, results are consumed as
// they complete, and a failure in one task never blocks its siblings. Each
// worker's resources (for the factsheet source, its browser session) are
// disposed exactly once when the pool drains, even when every task failed.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Worker executes fetch tasks for one source. Implementations may carry
// per-worker state (a browser session) created lazily on the first Fetch;
// Close must be idempotent and safe when no task ever ran.
type Worker interface {
	Fetch(ctx context.Context, symbol string) error
	Close() error
}

// Factory builds one Worker per pool slot. Stateless sources may hand out
// shared clients; stateful sources must return a fresh worker each call.
type Factory func() (Worker, error)

// Outcome is the result of one symbol's fetch task.
type Outcome struct {
	Symbol string
	Err    error
}

// Coordinator owns the worker pool for one source batch.
type Coordinator struct {
	source  string
	workers int
	factory Factory
}

// New creates a coordinator. The effective pool size is the configured
// worker count capped at the available hardware parallelism.
func New(source string, workers int, factory Factory) (*Coordinator, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	if n := runtime.NumCPU(); workers > n {
		workers = n
	}
	return &Coordinator{source: source, workers: workers, factory: factory}, nil
}

// Run fetches every pending symbol and returns one outcome per dispatched
// task, in completion order. Progress is reported live; failed symbols are
// logged inline and do not abort the batch.
func (c *Coordinator) Run(ctx context.Context, symbols []string) []Outcome {
	if len(symbols) == 0 {
		return nil
	}

	workers := c.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}

	tasks := make(chan string)
	results := make(chan Outcome, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w, err := c.factory()
			if err != nil {
				// The worker slot is unusable; its share of tasks fails
				// individually so siblings keep draining the queue.
				for symbol := range tasks {
					results <- Outcome{Symbol: symbol, Err: err}
				}
				return
			}
			defer w.Close()

			for symbol := range tasks {
				results <- Outcome{Symbol: symbol, Err: w.Fetch(ctx, symbol)}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, symbol := range symbols {
			select {
			case tasks <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	total := len(symbols)
	outcomes := make([]Outcome, 0, total)
	failed := 0
	for result := range results {
		outcomes = append(outcomes, result)
		if result.Err != nil {
			failed++
			fmt.Printf("\nError scrape %s: %s: %v\n", c.source, result.Symbol, result.Err)
			slog.Error("fetch failed", "source", c.source, "symbol", result.Symbol, "error", result.Err)
		}
		fmt.Printf("\r%s: %d/%d", c.source, len(outcomes), total)
	}

	fmt.Printf("\nFinished scrape %s: %d ok, %d failed\n", c.source, len(outcomes)-failed, failed)
	return outcomes
}
