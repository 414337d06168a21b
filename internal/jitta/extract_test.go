package jitta

import (
	"errors"
	"testing"

	"midasfetch/internal/fetcher"
)

// factsheetHTML mirrors the rendered table layout: a container whose first
// block holds the headers (with a trailing decorative cell and a blank) and
// whose later blocks hold marked row containers where the trailing cell is
// the metric label.
const factsheetHTML = `
<html><body>
<div class="FactsheetTable__TableContainer-sc-1">
  <div class="header-block">
    <div class="header-inner">
      <div>2021</div>
      <div>2022</div>
      <div></div>
      <div>2023</div>
      <div class="decor"></div>
    </div>
  </div>
  <div class="body-block">
    <div class="FactsheetTableRow__RowContainer-sc-2">
      <div class="row-inner">
        <div>100</div>
        <div>110</div>
        <div>120</div>
        <div>ignored-extra</div>
        <div>Revenue</div>
      </div>
    </div>
    <div class="not-a-row">
      <div class="row-inner"><div>skip</div><div>me</div></div>
    </div>
    <div class="FactsheetTableRow__RowContainer-sc-9">
      <div class="row-inner">
        <div>- -</div>
        <div>12</div>
        <div>14</div>
        <div>Net Profit</div>
      </div>
    </div>
  </div>
</div>
</body></html>`

func TestParseFactsheetTable(t *testing.T) {
	table, err := parseFactsheetTable(factsheetHTML)
	if err != nil {
		t.Fatalf("parseFactsheetTable() returned unexpected error: %v", err)
	}

	// Trailing decorative header dropped, blank header filtered.
	wantCols := []string{"2021", "2022", "2023"}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v, want %v", table.Columns, wantCols)
	}
	for i := range wantCols {
		if table.Columns[i] != wantCols[i] {
			t.Errorf("Columns[%d] = %q, want %q", i, table.Columns[i], wantCols[i])
		}
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2 (unmarked block skipped)", len(table.Rows))
	}

	// Trailing cell is the label; values truncated to the header count.
	first := table.Rows[0]
	if first.Label != "Revenue" {
		t.Errorf("Rows[0].Label = %q, want Revenue", first.Label)
	}
	if len(first.Values) != 3 || first.Values[0] != "100" || first.Values[2] != "120" {
		t.Errorf("Rows[0].Values = %v, want [100 110 120]", first.Values)
	}

	second := table.Rows[1]
	if second.Label != "Net Profit" {
		t.Errorf("Rows[1].Label = %q, want Net Profit", second.Label)
	}
	if len(second.Values) != 3 || second.Values[0] != "- -" {
		t.Errorf("Rows[1].Values = %v, want sentinel preserved until normalization", second.Values)
	}
}

func TestParseFactsheetTable_MissingContainer(t *testing.T) {
	_, err := parseFactsheetTable(`<html><body><div>nothing here</div></body></html>`)
	if err == nil {
		t.Fatal("parseFactsheetTable() expected error for missing container, got nil")
	}

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeExtraction {
		t.Errorf("parseFactsheetTable() error = %v, want extraction FetchError", err)
	}
}

func TestParseFactsheetTable_NoRows(t *testing.T) {
	html := `
	<html><body>
	<div class="FactsheetTable__TableContainer-sc-1">
	  <div><div><div>2023</div><div class="decor"></div></div></div>
	  <div class="body"><div class="unrelated"><div><div>x</div></div></div></div>
	</div>
	</body></html>`

	_, err := parseFactsheetTable(html)
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeExtraction {
		t.Errorf("parseFactsheetTable() error = %v, want extraction FetchError", err)
	}
}
