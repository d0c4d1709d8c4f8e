package engine

import (
	"math"
	"testing"
)

func eqCurve(vals ...float64) []EquityPoint {
	pts := make([]EquityPoint, len(vals))
	for i, v := range vals {
		pts[i] = EquityPoint{Timestamp: int64(i + 1), Equity: v}
	}
	return pts
}

func TestStatsNoTrades(t *testing.T) {
	cfg := testConfig()
	sim := SimResult{Trades: []Trade{}, Equity: eqCurve(10000, 10000, 10000)}
	rows := []SignalRow{
		mkSim(1, 100, 101, 99, 100, 1, SignalNone),
		mkSim(2, 100, 101, 99, 100, 1, SignalNone),
		mkSim(3, 100, 101, 99, 100, 1, SignalNone),
	}
	st := ComputeStats(sim, rows, cfg)
	if !st.NoTrades {
		t.Fatal("NoTrades flag not set")
	}
	if st.NumTrades != 0 || st.ProfitFactor != 0 || st.WinRatePct != 0 {
		t.Fatalf("empty run should zero trade metrics, got %+v", st)
	}
	if st.TotalReturnPct != 0 {
		t.Fatalf("flat curve return = %v, want 0", st.TotalReturnPct)
	}
	if st.ExposurePct != 0 {
		t.Fatalf("exposure = %v, want 0", st.ExposurePct)
	}
}

func TestMaxDrawdownMagnitude(t *testing.T) {
	// Peak 120, trough 90: drawdown 25%.
	dd := maxDrawdownPct(eqCurve(100, 120, 90, 130))
	if math.Abs(dd-25) > 1e-12 {
		t.Fatalf("drawdown = %v, want 25", dd)
	}
	if got := maxDrawdownPct(eqCurve(100, 110, 120)); got != 0 {
		t.Fatalf("monotone curve drawdown = %v, want 0", got)
	}
}

func TestProfitFactorAllWinners(t *testing.T) {
	cfg := testConfig()
	sim := SimResult{
		Trades: []Trade{{Pnl: 50}, {Pnl: 30}},
		Equity: eqCurve(10000, 10050, 10080),
	}
	st := ComputeStats(sim, nil, cfg)
	if !math.IsInf(st.ProfitFactor, 1) {
		t.Fatalf("profit factor = %v, want +Inf", st.ProfitFactor)
	}
	if st.WinRatePct != 100 {
		t.Fatalf("win rate = %v, want 100", st.WinRatePct)
	}
}

func TestProfitFactorMixed(t *testing.T) {
	cfg := testConfig()
	sim := SimResult{
		Trades: []Trade{{Pnl: 60}, {Pnl: -20}, {Pnl: -10}},
		Equity: eqCurve(10000, 10060, 10040, 10030),
	}
	st := ComputeStats(sim, nil, cfg)
	if math.Abs(st.ProfitFactor-2) > 1e-12 {
		t.Fatalf("profit factor = %v, want 2", st.ProfitFactor)
	}
	if math.Abs(st.WinRatePct-100.0/3) > 1e-9 {
		t.Fatalf("win rate = %v, want 33.33", st.WinRatePct)
	}
}

func TestBuyHoldReturn(t *testing.T) {
	cfg := testConfig()
	rows := []SignalRow{
		mkSim(1, 100, 101, 99, 100, 1, SignalNone),
		mkSim(2, 100, 111, 99, 110, 1, SignalNone),
	}
	sim := SimResult{Equity: eqCurve(10000, 10000)}
	st := ComputeStats(sim, rows, cfg)
	if math.Abs(st.BuyHoldReturnPct-10) > 1e-12 {
		t.Fatalf("buy-hold = %v, want 10", st.BuyHoldReturnPct)
	}
}

func TestRiskAdjustedZeroOnFlatCurve(t *testing.T) {
	sharpe, sortino := riskAdjusted(eqCurve(10000, 10000, 10000, 10000), 252)
	if sharpe != 0 || sortino != 0 {
		t.Fatalf("flat curve: sharpe=%v sortino=%v, want 0/0", sharpe, sortino)
	}
}

func TestRiskAdjustedSigns(t *testing.T) {
	sharpe, sortino := riskAdjusted(eqCurve(10000, 10100, 10050, 10200, 10300), 252)
	if sharpe <= 0 {
		t.Fatalf("rising noisy curve sharpe = %v, want > 0", sharpe)
	}
	if sortino <= 0 {
		t.Fatalf("sortino = %v, want > 0", sortino)
	}
	// One losing bar only: sortino's downside deviation uses fewer terms and
	// should not match sharpe.
	if sharpe == sortino {
		t.Fatal("sharpe and sortino should differ on an asymmetric curve")
	}
}

func TestExposurePct(t *testing.T) {
	cfg := testConfig()
	sim := SimResult{Equity: eqCurve(1, 1, 1, 1), ExposureBars: 3}
	rows := make([]SignalRow, 4)
	st := ComputeStats(sim, rows, cfg)
	if math.Abs(st.ExposurePct-75) > 1e-12 {
		t.Fatalf("exposure = %v, want 75", st.ExposurePct)
	}
}
