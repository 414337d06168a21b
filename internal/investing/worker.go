package investing

import (
	"context"
	"fmt"
	"time"

	"midasfetch/internal/fetcher"
	"midasfetch/internal/registry"
	"midasfetch/internal/series"
)

// Worker fetches and persists the portal series for one symbol at a time.
// It is stateless; the same client is shared by every pool worker.
type Worker struct {
	Client    *Client
	Registry  *registry.Registry
	OutputDir string
	From, To  time.Time
}

// Fetch retrieves the symbol's history and materializes the output file.
func (w *Worker) Fetch(ctx context.Context, symbol string) error {
	entry, ok := w.Registry.Lookup(symbol)
	if !ok {
		return fetcher.NewValidationError(fmt.Sprintf("symbol %s not in registry", symbol))
	}

	s, err := w.Client.FetchDaily(ctx, entry.Investing, w.From, w.To)
	if err != nil {
		return err
	}
	return series.SaveCSV(w.OutputDir, entry.Filename, s.WriteCSV)
}

// Close implements the worker contract; there is no per-worker state.
func (w *Worker) Close() error {
	return nil
}
