// Package indexfile reformats a market-index history CSV exported from the
// portal into the canonical column layout. The export names the close
// "Price", abbreviates volume with suffixes and sorts descending. The
// reformat is applied in place and only once: an already-canonical file no
// longer matches the export header and is left untouched.
package indexfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"midasfetch/internal/series"
)

// exportHeader is the portal export layout that triggers a reformat.
var exportHeader = []string{"Date", "Price", "Open", "High", "Low", "Vol.", "Change %"}

var dateLayouts = []string{"Jan 02, 2006", "2006-01-02", "02/01/2006"}

// Reformat rewrites the file into Date,Open,High,Low,Close,Volume,Change %
// with ISO dates, plain integers for volume and ascending row order, then
// resamples to calendar-daily frequency: non-trading days carry the previous
// bar forward so consumers can join the index against any date. Returns
// false when the file was already canonical and left as is.
func Reformat(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		return false, fmt.Errorf("failed to read index file %s: %w", path, err)
	}
	if len(rows) == 0 || !headerMatches(rows[0]) {
		return false, nil
	}

	bars := make([]bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 7 {
			continue
		}
		date, err := parseDate(row[0])
		if err != nil {
			return false, fmt.Errorf("index file %s: %w", path, err)
		}
		volume, err := series.ParseVolume(row[5])
		if err != nil {
			return false, fmt.Errorf("index file %s: %w", path, err)
		}
		bars = append(bars, bar{
			date:   date,
			close:  stripGrouping(row[1]),
			open:   stripGrouping(row[2]),
			high:   stripGrouping(row[3]),
			low:    stripGrouping(row[4]),
			volume: volume,
			change: strings.TrimSpace(row[6]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].date.Before(bars[j].date) })
	bars = fillDaily(bars)

	out := make([][]string, 0, len(bars)+1)
	out = append(out, []string{"Date", "Open", "High", "Low", "Close", "Volume", "Change %"})
	for _, b := range bars {
		out = append(out, []string{
			b.date.Format("2006-01-02"),
			b.open, b.high, b.low, b.close,
			fmt.Sprintf("%d", b.volume),
			b.change,
		})
	}

	err = series.SaveCSV(filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ".csv"), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(out); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

type bar struct {
	date                   time.Time
	open, high, low, close string
	volume                 int64
	change                 string
}

// fillDaily resamples ascending bars to one row per calendar day. Gap days
// (weekends, holidays) repeat the most recent traded bar.
func fillDaily(bars []bar) []bar {
	if len(bars) < 2 {
		return bars
	}
	filled := make([]bar, 0, len(bars))
	prev := bars[0]
	filled = append(filled, prev)
	for _, b := range bars[1:] {
		for d := prev.date.AddDate(0, 0, 1); d.Before(b.date); d = d.AddDate(0, 0, 1) {
			gap := prev
			gap.date = d
			filled = append(filled, gap)
		}
		filled = append(filled, b)
		prev = b
	}
	return filled
}

func headerMatches(header []string) bool {
	if len(header) != len(exportHeader) {
		return false
	}
	for i, h := range header {
		if strings.TrimSpace(h) != exportHeader[i] {
			return false
		}
	}
	return true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func stripGrouping(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
