package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes the series in the canonical layout: Date, OHLCV, the
// adjusted close when the series carries one, then the return column. The
// first return cell is always empty.
func (s *PriceSeries) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"Date", "Open", "High", "Low", "Close", "Volume"}
	if s.Basis == BasisAdjClose {
		header = append(header, "Adj Close")
	}
	header = append(header, "Return")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, p := range s.Points {
		row := []string{
			p.Date.Format("2006-01-02"),
			formatPrice(p.Open),
			formatPrice(p.High),
			formatPrice(p.Low),
			formatPrice(p.Close),
			strconv.FormatInt(p.Volume, 10),
		}
		if s.Basis == BasisAdjClose {
			row = append(row, formatPrice(p.AdjClose))
		}
		ret := ""
		if i > 0 && !math.IsNaN(s.Returns[i]) {
			ret = strconv.FormatFloat(s.Returns[i], 'f', -1, 64)
		}
		row = append(row, ret)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SaveCSV atomically materializes the series as <dir>/<filename>.csv. The
// file is written to a temp name first so a crash mid-write never leaves a
// partial file that would be mistaken for a completed fetch.
func SaveCSV(dir, filename string, write func(io.Writer) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filename+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, filename+".csv"))
}
