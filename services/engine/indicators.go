package engine

import (
	"fmt"
	"math"
)

// IndicatorRow extends a Bar with every value the signal stage consumes. All
// series are bar-index aligned and raw: span A/B carry no forward projection,
// and the chikou confirmations only compare values KijunLen bars in the past,
// so nothing on a row depends on bars after it.
type IndicatorRow struct {
	Bar

	Tenkan float64
	Kijun  float64
	SpanA  float64
	SpanB  float64

	// ATR is Wilder-smoothed true range over AtrLen bars.
	ATR float64

	// EMA is the trend-filter value; NaN until its own window has filled.
	EMA float64

	// ChikouLongOK reports close[t-kijun] > cloud top[t-kijun], i.e. the
	// displaced-close confirmation evaluated entirely in the past.
	ChikouLongOK  bool
	ChikouShortOK bool
}

// ComputeIndicators derives the full indicator table from an ordered bar
// sequence and drops the warm-up rows. It fails with ErrInsufficientData when
// not even one row survives warm-up; it never clamps to a shorter window.
func ComputeIndicators(bars []Bar, cfg Config) ([]IndicatorRow, error) {
	warmup := cfg.warmupBars()
	if len(bars) <= warmup {
		return nil, fmt.Errorf("%w: need more than %d bars, have %d",
			ErrInsufficientData, warmup, len(bars))
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}

	tenkan := midpointSeries(highs, lows, cfg.TenkanLen)
	kijun := midpointSeries(highs, lows, cfg.KijunLen)
	spanB := midpointSeries(highs, lows, cfg.SenkouBLen)
	spanA := make([]float64, len(bars))
	for i := range spanA {
		spanA[i] = (tenkan[i] + kijun[i]) / 2 // NaN propagates through warm-up
	}
	atr := wilderATR(bars, cfg.AtrLen)

	rows := make([]IndicatorRow, 0, len(bars)-warmup)
	for t := warmup; t < len(bars); t++ {
		var longOK, shortOK bool
		if p := t - cfg.KijunLen; p >= 0 {
			// While the displaced cloud is still NaN both comparisons are
			// false, so early rows carry unconfirmed flags rather than
			// shrinking the table.
			top := math.Max(spanA[p], spanB[p])
			bot := math.Min(spanA[p], spanB[p])
			longOK = closes[p] > top
			shortOK = closes[p] < bot
		}
		rows = append(rows, IndicatorRow{
			Bar:           bars[t],
			Tenkan:        tenkan[t],
			Kijun:         kijun[t],
			SpanA:         spanA[t],
			SpanB:         spanB[t],
			ATR:           atr[t],
			ChikouLongOK:  longOK,
			ChikouShortOK: shortOK,
		})
	}

	// The trend filter is seeded on the post-warm-up sequence, matching how
	// the rest of the pipeline only ever sees surviving rows.
	trimmedCloses := make([]float64, len(rows))
	for i, r := range rows {
		trimmedCloses[i] = r.Close
	}
	ema := emaSeries(trimmedCloses, cfg.EmaLen)
	for i := range rows {
		rows[i].EMA = ema[i]
	}

	return rows, nil
}

// midpointSeries returns (highest high + lowest low)/2 over inclusive windows
// of n bars ending at each index, NaN until the window has filled. Maintained
// with monotonic deques so the whole series is O(len).
func midpointSeries(highs, lows []float64, n int) []float64 {
	out := make([]float64, len(highs))
	var maxq, minq []int
	for i := range highs {
		for len(maxq) > 0 && highs[maxq[len(maxq)-1]] <= highs[i] {
			maxq = maxq[:len(maxq)-1]
		}
		maxq = append(maxq, i)
		if maxq[0] <= i-n {
			maxq = maxq[1:]
		}
		for len(minq) > 0 && lows[minq[len(minq)-1]] >= lows[i] {
			minq = minq[:len(minq)-1]
		}
		minq = append(minq, i)
		if minq[0] <= i-n {
			minq = minq[1:]
		}
		if i >= n-1 {
			out[i] = (highs[maxq[0]] + lows[minq[0]]) / 2
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// wilderATR seeds with the SMA of the first n true ranges, then applies
// Wilder's smoothing RMA = (RMA*(n-1) + TR) / n.
func wilderATR(bars []Bar, n int) []float64 {
	out := make([]float64, len(bars))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(bars) <= n {
		return out
	}
	var seed float64
	for i := 1; i <= n; i++ {
		seed += trueRange(bars[i], bars[i-1].Close)
	}
	out[n] = seed / float64(n)
	for i := n + 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1].Close)
		out[i] = (out[i-1]*float64(n-1) + tr) / float64(n)
	}
	return out
}

// emaSeries seeds with the SMA of the first n values, then smooths with
// alpha = 2/(n+1). Values before the seed index are NaN.
func emaSeries(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(vals) < n {
		return out
	}
	var sma float64
	for i := 0; i < n; i++ {
		sma += vals[i]
	}
	out[n-1] = sma / float64(n)
	alpha := 2.0 / float64(n+1)
	for i := n; i < len(vals); i++ {
		out[i] = vals[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}
