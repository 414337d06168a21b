package series

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// priceDecimals is the rounding applied to price columns.
	priceDecimals = 4
	// returnDecimals is the rounding applied to the derived return column.
	returnDecimals = 6
)

// Basis selects which price column the period-over-period return is
// computed from. The divergence between sources is deliberate: the portal
// only offers a raw close, the quote provider offers an adjusted close.
type Basis int

const (
	// BasisClose computes returns from the closing price.
	BasisClose Basis = iota
	// BasisAdjClose computes returns from the adjusted closing price.
	BasisAdjClose
)

// PricePoint is one raw trading-day row as delivered by a source adapter,
// before normalization.
type PricePoint struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// PriceSeries is a normalized per-symbol price history: rows strictly
// ascending by date, prices rounded, with a derived return column.
type PriceSeries struct {
	Basis  Basis
	Points []PricePoint

	// Returns holds the period-over-period return per row, rounded to six
	// decimals. Returns[0] is always undefined (no prior period) and is
	// written as an empty cell.
	Returns []float64
}

// Normalize sorts the raw points ascending by date, rejects duplicate dates,
// rounds prices to four decimals and computes the return column from the
// given basis. The input slice is not modified.
func Normalize(points []PricePoint, basis Basis) (*PriceSeries, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("empty price series")
	}

	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := range sorted {
		if i > 0 && sameDay(sorted[i].Date, sorted[i-1].Date) {
			return nil, fmt.Errorf("duplicate date %s", sorted[i].Date.Format("2006-01-02"))
		}
		sorted[i].Open = roundTo(sorted[i].Open, priceDecimals)
		sorted[i].High = roundTo(sorted[i].High, priceDecimals)
		sorted[i].Low = roundTo(sorted[i].Low, priceDecimals)
		sorted[i].Close = roundTo(sorted[i].Close, priceDecimals)
		sorted[i].AdjClose = roundTo(sorted[i].AdjClose, priceDecimals)
	}

	s := &PriceSeries{
		Basis:   basis,
		Points:  sorted,
		Returns: make([]float64, len(sorted)),
	}
	for i := 1; i < len(sorted); i++ {
		prev := s.basisPrice(i - 1)
		if prev == 0 {
			s.Returns[i] = math.NaN()
			continue
		}
		s.Returns[i] = roundTo((s.basisPrice(i)-prev)/prev, returnDecimals)
	}
	return s, nil
}

func (s *PriceSeries) basisPrice(i int) float64 {
	if s.Basis == BasisAdjClose {
		return s.Points[i].AdjClose
	}
	return s.Points[i].Close
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// ParseVolume expands a suffix-encoded volume string to an integer share
// count. The source encodes billions with a B suffix (multiplier 1e9) and
// abbreviated millions with an M suffix (multiplier 1e4): "1.2B" expands to
// 1_200_000_000 and "450M" to 4_500_000. The multipliers follow the source's
// documented convention and must not be changed. Plain numbers may carry
// comma grouping.
func ParseVolume(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" || s == "-" {
		return 0, nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "B"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		multiplier = 1e4
		s = strings.TrimSuffix(s, "M")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: %w", raw, err)
	}
	return int64(math.Round(v * multiplier)), nil
}
