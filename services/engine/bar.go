package engine

import (
	"fmt"
	"math"
)

// Bar represents a single OHLCV bar. Timestamp is unix milliseconds UTC.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ValidateBars checks that the bar table is well formed: timestamps strictly
// increasing and duplicate-free, prices finite and positive, high/low bracket
// open/close. Any violation is a schema error for the whole run.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		for name, v := range map[string]float64{
			"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: bar %d has invalid %s %v", ErrSchema, i, name, v)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d high %v below low %v", ErrSchema, i, b.High, b.Low)
		}
		if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("%w: bar %d open/close outside high/low range", ErrSchema, i)
		}
		if i > 0 && bars[i].Timestamp <= bars[i-1].Timestamp {
			return fmt.Errorf("%w: bar %d timestamp %d not after previous %d",
				ErrSchema, i, bars[i].Timestamp, bars[i-1].Timestamp)
		}
	}
	return nil
}

// trueRange computes TR against the previous close.
func trueRange(b Bar, prevClose float64) float64 {
	tr := b.High - b.Low
	if d := math.Abs(b.High - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(b.Low - prevClose); d > tr {
		tr = d
	}
	return tr
}
