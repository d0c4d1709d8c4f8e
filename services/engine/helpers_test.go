package engine

import "math"

// testConfig keeps the windows small so warm-up stays manageable in tests.
func testConfig() Config {
	return Config{
		TenkanLen:      3,
		KijunLen:       4,
		SenkouBLen:     6,
		AtrLen:         3,
		SlMult:         1.5,
		RrMult:         2.0,
		EmaLen:         5,
		EmaBackCandles: 2,
		Lookback:       4,
		MinConfirm:     2,
		InitialCash:    10_000,
		Commission:     0,
		Margin:         1.0,
		SizeFraction:   1.0,
		BarsPerYear:    252,
	}
}

// risingBars builds a monotonically rising series with constant intrabar range.
func risingBars(n int) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = Bar{
			Timestamp: int64(i+1) * 60_000,
			Open:      c - 0.5,
			High:      c + 0.5,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func floatsEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func rowsEqual(a, b IndicatorRow) bool {
	return a.Bar == b.Bar &&
		floatsEqual(a.Tenkan, b.Tenkan) &&
		floatsEqual(a.Kijun, b.Kijun) &&
		floatsEqual(a.SpanA, b.SpanA) &&
		floatsEqual(a.SpanB, b.SpanB) &&
		floatsEqual(a.ATR, b.ATR) &&
		floatsEqual(a.EMA, b.EMA) &&
		a.ChikouLongOK == b.ChikouLongOK &&
		a.ChikouShortOK == b.ChikouShortOK
}
