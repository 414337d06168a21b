package jitta

import (
	"context"
	"errors"
	"testing"

	"midasfetch/internal/fetcher"
)

func TestSession_CloseIdempotentWhenNeverInitialized(t *testing.T) {
	s := NewSession(Config{})

	// No browser was ever started; disposal must still be safe, repeatedly.
	if err := s.Close(); err != nil {
		t.Errorf("Close() returned unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() returned unexpected error: %v", err)
	}
}

func TestSession_FetchAfterCloseFails(t *testing.T) {
	s := NewSession(Config{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() returned unexpected error: %v", err)
	}

	_, err := s.FetchFactsheet(context.Background(), "aot")
	if err == nil {
		t.Fatal("FetchFactsheet() expected error after Close, got nil")
	}

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeSession {
		t.Errorf("FetchFactsheet() error = %v, want session FetchError", err)
	}
}

func TestSession_EmptyIdentifier(t *testing.T) {
	s := NewSession(Config{})
	defer s.Close()

	_, err := s.FetchFactsheet(context.Background(), "")
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeValidation {
		t.Errorf("FetchFactsheet() error = %v, want validation FetchError", err)
	}
}

func TestWorker_CloseWithoutFetch(t *testing.T) {
	w := &Worker{}
	if err := w.Close(); err != nil {
		t.Errorf("Close() returned unexpected error: %v", err)
	}
}

func TestSession_CanceledContextDoesNotStartBrowser(t *testing.T) {
	s := NewSession(Config{})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchFactsheet(ctx, "aot")
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeSession {
		t.Errorf("FetchFactsheet() error = %v, want session FetchError", err)
	}
}
