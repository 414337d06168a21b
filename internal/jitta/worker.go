package jitta

import (
	"context"
	"fmt"

	"midasfetch/internal/fetcher"
	"midasfetch/internal/registry"
	"midasfetch/internal/series"
)

// Worker owns one worker's browsing session. The session is created lazily
// on the first fetch, reused for every later task on the same worker and
// disposed exactly once when the pool shuts the worker down. The browser
// driver is not safely shareable, so it is never handed to another worker.
type Worker struct {
	Registry      *registry.Registry
	OutputDir     string
	SessionConfig Config

	session *Session
}

// Fetch retrieves the symbol's merged factsheet and materializes the output
// file. A login failure leaves the session uninitialized, so the next task
// on this worker retries authentication from scratch.
func (w *Worker) Fetch(ctx context.Context, symbol string) error {
	entry, ok := w.Registry.Lookup(symbol)
	if !ok {
		return fetcher.NewValidationError(fmt.Sprintf("symbol %s not in registry", symbol))
	}

	if w.session == nil {
		w.session = NewSession(w.SessionConfig)
	}

	fs, err := w.session.FetchFactsheet(ctx, entry.Jitta)
	if err != nil {
		return err
	}
	return series.SaveCSV(w.OutputDir, entry.Filename, fs.WriteCSV)
}

// Close disposes the worker's session. Safe when no task ever ran.
func (w *Worker) Close() error {
	if w.session == nil {
		return nil
	}
	return w.session.Close()
}
