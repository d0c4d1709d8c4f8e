package engine

import (
	"errors"
	"math"
	"testing"
)

func TestMidpointSeriesWindow(t *testing.T) {
	highs := []float64{3, 5, 4}
	lows := []float64{1, 2, 3}
	got := midpointSeries(highs, lows, 2)
	if !math.IsNaN(got[0]) {
		t.Fatalf("expected NaN before window fill, got %v", got[0])
	}
	if got[1] != 3 {
		t.Fatalf("midpoint[1] = %v, want 3", got[1])
	}
	if got[2] != 3.5 {
		t.Fatalf("midpoint[2] = %v, want 3.5", got[2])
	}
}

func TestWilderATRConstantRange(t *testing.T) {
	// Every bar of the rising series has TR = 1.5, so the Wilder average is
	// exactly 1.5 once seeded.
	bars := risingBars(20)
	atr := wilderATR(bars, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(atr[i]) {
			t.Fatalf("atr[%d] = %v, want NaN during warm-up", i, atr[i])
		}
	}
	for i := 3; i < len(atr); i++ {
		if math.Abs(atr[i]-1.5) > 1e-12 {
			t.Fatalf("atr[%d] = %v, want 1.5", i, atr[i])
		}
	}
}

func TestEmaSeedIsSMA(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 10}
	ema := emaSeries(vals, 4)
	if !math.IsNaN(ema[2]) {
		t.Fatalf("ema[2] = %v, want NaN", ema[2])
	}
	if ema[3] != 2.5 {
		t.Fatalf("ema seed = %v, want 2.5", ema[3])
	}
	alpha := 2.0 / 5.0
	want := 10*alpha + 2.5*(1-alpha)
	if math.Abs(ema[4]-want) > 1e-12 {
		t.Fatalf("ema[4] = %v, want %v", ema[4], want)
	}
}

func TestInsufficientDataNotClamped(t *testing.T) {
	cfg := testConfig()
	_, err := ComputeIndicators(risingBars(cfg.warmupBars()), cfg)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	rows, err := ComputeIndicators(risingBars(cfg.warmupBars()+1), cfg)
	if err != nil {
		t.Fatalf("one bar past warm-up should succeed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
}

func TestWarmupEndsAtSlowestWindow(t *testing.T) {
	cfg := testConfig()
	bars := risingBars(20)
	rows, err := ComputeIndicators(bars, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// The first surviving row is the one where the slowest midpoint window
	// has just filled.
	first := bars[cfg.SenkouBLen-1]
	if rows[0].Timestamp != first.Timestamp {
		t.Fatalf("first row at ts %d, want %d (slowest window fill)",
			rows[0].Timestamp, first.Timestamp)
	}
	// Displaced-close flags stay unconfirmed while the shifted cloud is
	// still undefined; the row itself is kept.
	if rows[0].ChikouLongOK || rows[0].ChikouShortOK {
		t.Fatal("chikou flags must be false before the displaced cloud exists")
	}

	// Stock parameters accept any series longer than their slowest window.
	full, err := ComputeIndicators(risingBars(70), DefaultConfig())
	if err != nil {
		t.Fatalf("70 bars must clear a 52-bar slowest window: %v", err)
	}
	if want := 70 - (DefaultConfig().SenkouBLen - 1); len(full) != want {
		t.Fatalf("got %d rows, want %d", len(full), want)
	}
}

func TestNoLookahead(t *testing.T) {
	cfg := testConfig()
	bars := risingBars(30)
	rows1, err := ComputeIndicators(bars, cfg)
	if err != nil {
		t.Fatal(err)
	}

	mutated := make([]Bar, len(bars))
	copy(mutated, bars)
	mutated[len(mutated)-1].Close -= 0.3
	rows2, err := ComputeIndicators(mutated, cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(rows1)-1; i++ {
		if !rowsEqual(rows1[i], rows2[i]) {
			t.Fatalf("row %d changed after mutating a later bar", i)
		}
	}
	if rowsEqual(rows1[len(rows1)-1], rows2[len(rows2)-1]) {
		t.Fatal("final row should reflect the mutated bar")
	}
}

func TestIndicatorIdempotence(t *testing.T) {
	cfg := testConfig()
	bars := risingBars(40)
	rows1, err := ComputeIndicators(bars, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rows2, err := ComputeIndicators(bars, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows1) != len(rows2) {
		t.Fatalf("row counts differ: %d vs %d", len(rows1), len(rows2))
	}
	for i := range rows1 {
		if !rowsEqual(rows1[i], rows2[i]) {
			t.Fatalf("row %d differs between identical runs", i)
		}
	}
}

func TestChikouConfirmationOnRisingSeries(t *testing.T) {
	cfg := testConfig()
	rows, err := ComputeIndicators(risingBars(40), cfg)
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if !last.ChikouLongOK {
		t.Fatal("rising series should confirm long via displaced close")
	}
	if last.ChikouShortOK {
		t.Fatal("rising series must never confirm short")
	}
}
