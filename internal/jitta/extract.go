package jitta

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"midasfetch/internal/fetcher"
	"midasfetch/internal/series"
)

// rowMarker tags the container divs that carry one metric row.
const rowMarker = "FactsheetTableRow__RowContainer"

// parseFactsheetTable extracts one factsheet view from rendered HTML. The
// table is a nested container structure: the first child block holds the
// period headers (trailing decorative column dropped, blank headers
// filtered); every later block contributes row containers where the trailing
// cell is the metric label and the first N cells (N = header count) are the
// values. Cells beyond the header count are discarded.
func parseFactsheetTable(html string) (*series.FactsheetTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fetcher.NewExtractionError("unparseable page content: " + err.Error())
	}

	container := doc.Find(tableSelector).First()
	if container.Length() == 0 {
		return nil, fetcher.NewExtractionError("factsheet table container not found")
	}
	blocks := container.Children()
	if blocks.Length() < 2 {
		return nil, fetcher.NewExtractionError("factsheet table has no data rows")
	}

	columns := parseHeader(blocks.First())
	if len(columns) == 0 {
		return nil, fetcher.NewExtractionError("factsheet table has no period columns")
	}

	table := &series.FactsheetTable{Columns: columns}
	blocks.Each(func(i int, block *goquery.Selection) {
		if i == 0 {
			return
		}
		block.Children().Each(func(_ int, row *goquery.Selection) {
			if !strings.Contains(row.AttrOr("class", ""), rowMarker) {
				return
			}
			if r, ok := parseRow(row, len(columns)); ok {
				table.Rows = append(table.Rows, r)
			}
		})
	})

	if len(table.Rows) == 0 {
		return nil, fetcher.NewExtractionError("factsheet table has no data rows")
	}
	return table, nil
}

// parseHeader reads the period columns from the first child block: its first
// inner container's direct children, minus the trailing decorative cell,
// minus blanks.
func parseHeader(block *goquery.Selection) []string {
	cells := block.Children().First().Children()
	n := cells.Length()

	var columns []string
	cells.Each(func(i int, cell *goquery.Selection) {
		if i == n-1 {
			return
		}
		if text := strings.TrimSpace(cell.Text()); text != "" {
			columns = append(columns, text)
		}
	})
	return columns
}

// parseRow reads one metric row: the cells are the direct children of the
// row's first inner container, the trailing cell is the label.
func parseRow(row *goquery.Selection, headerCount int) (series.FactsheetRow, bool) {
	var texts []string
	row.Children().First().Children().Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	if len(texts) < 2 {
		return series.FactsheetRow{}, false
	}

	end := headerCount
	if end > len(texts)-1 {
		end = len(texts) - 1
	}
	return series.FactsheetRow{
		Label:  texts[len(texts)-1],
		Values: texts[:end],
	}, true
}
