package marketdata

import (
	"fmt"

	"ichimoku-backtest/services/engine"
)

// Resample aggregates an ordered bar table into buckets of the given
// duration in milliseconds, aligned to multiples of it. Open takes the
// bucket's first bar, close its last, high/low the extremes and volume the
// sum. Partial buckets at either edge are kept.
func Resample(bars []engine.Bar, bucketMs int64) ([]engine.Bar, error) {
	if bucketMs <= 0 {
		return nil, fmt.Errorf("bucket must be positive, got %d", bucketMs)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	var out []engine.Bar
	cur := engine.Bar{}
	curStart := int64(-1)
	for _, b := range bars {
		start := b.Timestamp - mod(b.Timestamp, bucketMs)
		if start != curStart {
			if curStart >= 0 {
				out = append(out, cur)
			}
			curStart = start
			cur = engine.Bar{Timestamp: start, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	out = append(out, cur)
	return out, nil
}

// mod is a floored modulo so pre-epoch timestamps bucket consistently.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
