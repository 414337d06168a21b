package testutil

import (
	"context"
	"sync/atomic"
)

// MockWorker is a mock implementation of the coordinator.Worker interface
// for testing
type MockWorker struct {
	FetchFunc func(ctx context.Context, symbol string) error
	CloseFunc func() error

	Fetches int64
	Closes  int64
}

// Fetch implements the Worker interface
func (m *MockWorker) Fetch(ctx context.Context, symbol string) error {
	atomic.AddInt64(&m.Fetches, 1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol)
	}
	return nil
}

// Close implements the Worker interface
func (m *MockWorker) Close() error {
	atomic.AddInt64(&m.Closes, 1)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// NewMockWorker creates a simple mock worker that returns err for every fetch
func NewMockWorker(err error) *MockWorker {
	return &MockWorker{
		FetchFunc: func(ctx context.Context, symbol string) error {
			return err
		},
	}
}
