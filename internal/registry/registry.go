package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// badSymbolSentinel is a known-bad sheet row: a ticker that spreadsheet
// software coerces into a boolean cell. It is excluded from the fetchable
// universe so callers never request it as a real symbol.
const badSymbolSentinel = "TRUE"

// Entry holds the per-source identifiers and output filename for one symbol.
// Identifiers may be empty; well-formedness is left to the adapter that
// consumes them.
type Entry struct {
	Symbol    string
	Investing string
	Yahoo     string
	Jitta     string
	Filename  string
}

// Registry is the immutable symbol universe, loaded once at startup.
type Registry struct {
	entries    map[string]Entry
	byFilename map[string]string
}

// LoadError indicates the backing sheet is missing or malformed. It is
// fatal: without a registry there is no work to resolve.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load registry %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the symbol universe from the named sheet of an XLSX workbook.
// The first column is the ticker symbol (normalized to uppercase); the
// remaining columns are matched by header name.
func Load(path, sheet string) (*Registry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q: %w", sheet, err)}
	}
	if len(rows) < 1 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q is empty", sheet)}
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	r := &Registry{
		entries:    make(map[string]Entry),
		byFilename: make(map[string]string),
	}
	for _, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(row[0]))
		if symbol == badSymbolSentinel {
			slog.Warn("skipping boolean sentinel row in registry", "symbol", symbol)
			continue
		}

		e := Entry{
			Symbol:    symbol,
			Investing: cell(row, cols["Investing"]),
			Yahoo:     cell(row, cols["Yahoo"]),
			Jitta:     cell(row, cols["Jitta"]),
			Filename:  cell(row, cols["Filename"]),
		}
		if e.Filename == "" {
			e.Filename = symbol
		}
		r.entries[symbol] = e
		r.byFilename[e.Filename] = symbol
	}

	if len(r.entries) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q has no symbol rows", sheet)}
	}
	return r, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			cols[name] = i
		}
	}
	for _, required := range []string{"Investing", "Yahoo", "Jitta", "Filename"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Lookup returns the entry for a symbol (case-insensitive).
func (r *Registry) Lookup(symbol string) (Entry, bool) {
	e, ok := r.entries[strings.ToUpper(symbol)]
	return e, ok
}

// SymbolForFilename maps an output filename (without extension) back to its
// symbol. Used by the pending-work resolver to recognize completed fetches.
func (r *Registry) SymbolForFilename(filename string) (string, bool) {
	s, ok := r.byFilename[filename]
	return s, ok
}

// Symbols returns every symbol in sorted order.
func (r *Registry) Symbols() []string {
	symbols := make([]string, 0, len(r.entries))
	for s := range r.entries {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Len reports the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
