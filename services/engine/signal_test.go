package engine

import "testing"

func mkRow(ts int64, open, close, spanA, spanB, ema float64) IndicatorRow {
	hi, lo := open, close
	if close > hi {
		hi = close
	}
	if open < lo {
		lo = open
	}
	return IndicatorRow{
		Bar: Bar{
			Timestamp: ts,
			Open:      open,
			High:      hi + 1,
			Low:       lo - 1,
			Close:     close,
			Volume:    1,
		},
		SpanA: spanA,
		SpanB: spanB,
		ATR:   1,
		EMA:   ema,
	}
}

func TestPierceAfterConfirmationFiresSingleLong(t *testing.T) {
	cfg := testConfig()

	// Six bars entirely above a flat cloud, then one bar opening inside the
	// cloud top and closing above it, then a quiet bar.
	rows := make([]IndicatorRow, 0, 8)
	for i := 0; i < 6; i++ {
		rows = append(rows, mkRow(int64(i+1), 55, 56, 50, 48, 10))
	}
	rows = append(rows, mkRow(7, 49.5, 51, 50, 48, 10))
	rows = append(rows, mkRow(8, 55, 56, 50, 48, 10))

	out := GenerateSignals(rows, cfg)
	var longs int
	for i, r := range out {
		if r.Signal == SignalShort {
			t.Fatalf("unexpected short at %d", i)
		}
		if r.Signal == SignalLong {
			longs++
			if i != 6 {
				t.Fatalf("long fired at %d, want 6", i)
			}
		}
	}
	if longs != 1 {
		t.Fatalf("got %d long signals, want exactly 1", longs)
	}
}

func TestTrendFilterIsAllOrNothing(t *testing.T) {
	cfg := testConfig()

	rows := make([]IndicatorRow, 0, 7)
	for i := 0; i < 6; i++ {
		rows = append(rows, mkRow(int64(i+1), 55, 56, 50, 48, 10))
	}
	// Same pierce bar, but its open dips below the EMA: one bar of the trend
	// window fails, so the gate must stay closed.
	rows = append(rows, mkRow(7, 9.5, 51, 50, 48, 10))

	out := GenerateSignals(rows, cfg)
	last := out[len(out)-1]
	if last.TrendSignal != 0 {
		t.Fatalf("trend signal = %d, want 0", last.TrendSignal)
	}
	if last.Signal != SignalNone {
		t.Fatalf("signal = %v, want None", last.Signal)
	}
}

func TestConfirmationCountBelowMinimum(t *testing.T) {
	cfg := testConfig()

	// Only one bar above the cloud inside the lookback window before the
	// pierce: below MinConfirm, so no entry.
	rows := []IndicatorRow{
		mkRow(1, 49, 49.5, 50, 48, 10), // inside cloud
		mkRow(2, 49, 49.5, 50, 48, 10),
		mkRow(3, 49, 49.5, 50, 48, 10),
		mkRow(4, 55, 56, 50, 48, 10), // one bar above
		mkRow(5, 49.5, 51, 50, 48, 10),
	}
	out := GenerateSignals(rows, cfg)
	if got := out[len(out)-1].Signal; got != SignalNone {
		t.Fatalf("signal = %v, want None with confirmation below minimum", got)
	}
}

func TestRisingSeriesNeverSignalsShort(t *testing.T) {
	cfg := testConfig()
	ind, err := ComputeIndicators(risingBars(60), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range GenerateSignals(ind, cfg) {
		if r.Signal == SignalShort {
			t.Fatalf("short signal at row %d of a monotonically rising series", i)
		}
		if r.TrendSignal == -1 {
			t.Fatalf("downtrend filter at row %d of a rising series", i)
		}
	}
}
