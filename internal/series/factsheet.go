package series

import (
	"encoding/csv"
	"io"
)

// FactsheetTable is one extracted view of a factsheet: ordered period
// columns and rows of (metric label, values). Row values are already
// truncated to the header count by the extractor.
type FactsheetTable struct {
	Columns []string
	Rows    []FactsheetRow
}

// FactsheetRow is one metric line of a factsheet view.
type FactsheetRow struct {
	Label  string
	Values []string
}

// Factsheet is the merged annual + quarterly factsheet for one symbol:
// one row per metric label, one column per reporting period. Labels and
// columns keep first-seen order so repeated runs produce identical files.
type Factsheet struct {
	labels  []string
	columns []string
	cells   map[string]map[string]string
}

// NewFactsheet returns an empty factsheet.
func NewFactsheet() *Factsheet {
	return &Factsheet{cells: make(map[string]map[string]string)}
}

// Merge folds one extracted view into the factsheet column-wise. Labels
// already present gain the new periods; labels only present in this view
// get empty cells for earlier periods (and vice versa).
func (f *Factsheet) Merge(t *FactsheetTable) {
	for _, col := range t.Columns {
		if _, seen := f.colIndex(col); !seen {
			f.columns = append(f.columns, col)
		}
	}
	for _, row := range t.Rows {
		cells, ok := f.cells[row.Label]
		if !ok {
			cells = make(map[string]string)
			f.cells[row.Label] = cells
			f.labels = append(f.labels, row.Label)
		}
		for i, v := range row.Values {
			if i >= len(t.Columns) {
				break
			}
			cells[t.Columns[i]] = v
		}
	}
}

func (f *Factsheet) colIndex(name string) (int, bool) {
	for i, c := range f.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// BlankSentinel replaces every cell exactly equal to the source's
// "no data" marker with an empty value.
func (f *Factsheet) BlankSentinel(sentinel string) {
	for _, cells := range f.cells {
		for col, v := range cells {
			if v == sentinel {
				cells[col] = ""
			}
		}
	}
}

// Labels returns the metric labels in output order.
func (f *Factsheet) Labels() []string {
	return append([]string(nil), f.labels...)
}

// Columns returns the period columns in output order.
func (f *Factsheet) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Cell returns the value for (label, column), empty when absent.
func (f *Factsheet) Cell(label, column string) string {
	return f.cells[label][column]
}

// WriteCSV writes the merged table with the metric label as the leading
// index column.
func (f *Factsheet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, f.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, label := range f.labels {
		row := make([]string, 0, len(f.columns)+1)
		row = append(row, label)
		for _, col := range f.columns {
			row = append(row, f.cells[label][col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
