// Package jitta fetches fundamental factsheets from the factsheet site. The
// site is rendered client-side behind a credential login, so fetching runs
// through a browser-automation session: at most one per pool worker, created
// lazily on first use, reused across that worker's tasks and disposed at
// pool shutdown.
package jitta

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"midasfetch/internal/fetcher"
	"midasfetch/internal/ratelimit"
	"midasfetch/internal/series"
)

const (
	// noDataSentinel is the site's "no data" cell marker, blanked during
	// normalization.
	noDataSentinel = "- -"

	// settleDelay gives the client-side rerender a moment after the
	// quarterly toggle before the table is read.
	settleDelay = 500 * time.Millisecond

	loginEmailSelector    = `input[name="email"]`
	loginPasswordSelector = `input[name="password"]`
	loginSubmitSelector   = `button[type="submit"]`
	searchBoxSelector     = `input[placeholder="Search on Jitta"]`
	tableSelector         = `div[class*="FactsheetTable__TableContainer"]`
	quarterToggleXPath    = `//button[text()="QUARTER"]`
)

// Config holds the session's injected settings. Credentials come from
// configuration, never from source.
type Config struct {
	BaseURL     string
	LoginURL    string
	Email       string
	Password    string
	Market      string
	Headless    bool
	WaitTimeout time.Duration
}

// Session is an authenticated browsing context. States: uninitialized until
// the first fetch, ready after a successful login, disposed after Close. A
// failed login tears the browser down again so the next fetch starts from
// uninitialized with no partial state.
type Session struct {
	cfg Config

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	ready  bool
	closed bool
}

// NewSession prepares a session without opening a browser.
func NewSession(cfg Config) *Session {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 60 * time.Second
	}
	return &Session{cfg: cfg}
}

// ensureReady lazily starts the browser and authenticates. On failure the
// browser is torn down and the error reports as a session failure; the next
// call retries the login from scratch.
func (s *Session) ensureReady(ctx context.Context) error {
	if s.closed {
		return fetcher.NewSessionError(fmt.Errorf("session already disposed"))
	}
	if s.ready {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fetcher.NewSessionError(err)
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel

	loginCtx, cancel := context.WithTimeout(browserCtx, s.cfg.WaitTimeout)
	defer cancel()

	err := chromedp.Run(loginCtx,
		chromedp.Navigate(s.cfg.LoginURL),
		chromedp.WaitVisible(loginEmailSelector, chromedp.ByQuery),
		chromedp.SendKeys(loginEmailSelector, s.cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys(loginPasswordSelector, s.cfg.Password, chromedp.ByQuery),
		chromedp.Click(loginSubmitSelector, chromedp.ByQuery),
		chromedp.WaitVisible(searchBoxSelector, chromedp.ByQuery),
	)
	if err != nil {
		s.teardown()
		return fetcher.NewSessionError(fmt.Errorf("login did not reach landmark: %w", err))
	}

	s.ready = true
	return nil
}

// FetchFactsheet renders the symbol's annual and quarterly factsheet views,
// extracts both tables and merges them into one normalized factsheet.
func (s *Session) FetchFactsheet(ctx context.Context, id string) (*series.Factsheet, error) {
	if id == "" {
		return nil, fetcher.NewValidationError("no factsheet identifier configured")
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIJitta); err != nil {
		return nil, fetcher.NewTimeoutError(err)
	}

	url := fmt.Sprintf("%s/stock/%s:%s/factsheet", s.cfg.BaseURL, s.cfg.Market, strings.ToLower(id))

	pageCtx, cancel := context.WithTimeout(s.browserCtx, s.cfg.WaitTimeout)
	defer cancel()

	var annualHTML string
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &annualHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fetcher.NewExtractionError(fmt.Sprintf("annual factsheet did not render: %v", err))
	}

	var quarterHTML string
	err = chromedp.Run(pageCtx,
		chromedp.Click(quarterToggleXPath),
		chromedp.Sleep(settleDelay),
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &quarterHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fetcher.NewExtractionError(fmt.Sprintf("quarterly factsheet did not render: %v", err))
	}

	annual, err := parseFactsheetTable(annualHTML)
	if err != nil {
		return nil, err
	}
	quarter, err := parseFactsheetTable(quarterHTML)
	if err != nil {
		return nil, err
	}

	fs := series.NewFactsheet()
	fs.Merge(annual)
	fs.Merge(quarter)
	fs.BlankSentinel(noDataSentinel)
	return fs, nil
}

// Close disposes the browser. Idempotent, and a no-op when the session was
// never initialized.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.teardown()
	return nil
}

func (s *Session) teardown() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.browserCtx = nil
	s.ready = false
}
