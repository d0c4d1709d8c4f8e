package engine

import "math"

// Stats summarizes one run. Drawdown is reported as a positive magnitude.
type Stats struct {
	TotalReturnPct   float64
	BuyHoldReturnPct float64
	MaxDrawdownPct   float64
	WinRatePct       float64

	// ProfitFactor is +Inf with winners and no losers, and 0 with NoTrades
	// set when the run produced no trades at all.
	ProfitFactor float64
	NoTrades     bool

	NumTrades   int
	Sharpe      float64
	Sortino     float64
	ExposurePct float64
}

// ComputeStats aggregates the equity curve and trade list into summary
// metrics. Sharpe and Sortino are computed from per-bar equity returns and
// annualized by cfg.BarsPerYear.
func ComputeStats(sim SimResult, rows []SignalRow, cfg Config) Stats {
	st := Stats{NumTrades: len(sim.Trades), NoTrades: len(sim.Trades) == 0}

	if n := len(sim.Equity); n > 0 {
		st.TotalReturnPct = (sim.Equity[n-1].Equity/cfg.InitialCash - 1) * 100
	}
	if n := len(rows); n > 0 && rows[0].Close > 0 {
		st.BuyHoldReturnPct = (rows[n-1].Close/rows[0].Close - 1) * 100
	}
	st.MaxDrawdownPct = maxDrawdownPct(sim.Equity)

	var wins int
	var grossWin, grossLoss float64
	for _, t := range sim.Trades {
		if t.Pnl > 0 {
			wins++
			grossWin += t.Pnl
		} else {
			grossLoss += -t.Pnl
		}
	}
	if st.NumTrades > 0 {
		st.WinRatePct = float64(wins) / float64(st.NumTrades) * 100
	}
	switch {
	case st.NoTrades:
		st.ProfitFactor = 0
	case grossLoss == 0 && grossWin > 0:
		st.ProfitFactor = math.Inf(1)
	case grossLoss == 0:
		st.ProfitFactor = 0
	default:
		st.ProfitFactor = grossWin / grossLoss
	}

	st.Sharpe, st.Sortino = riskAdjusted(sim.Equity, cfg.BarsPerYear)

	if len(rows) > 0 {
		st.ExposurePct = float64(sim.ExposureBars) / float64(len(rows)) * 100
	}
	return st
}

func maxDrawdownPct(equity []EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

// riskAdjusted returns annualized Sharpe and Sortino from per-bar equity
// returns. Both are 0 when the curve has no variance (or no downside, for
// Sortino) rather than NaN.
func riskAdjusted(equity []EquityPoint, barsPerYear float64) (sharpe, sortino float64) {
	if len(equity) < 2 {
		return 0, 0
	}
	rets := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		rets = append(rets, equity[i].Equity/prev-1)
	}
	if len(rets) < 2 {
		return 0, 0
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance, downSq float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
		if r < 0 {
			downSq += r * r
		}
	}
	variance /= float64(len(rets) - 1)
	ann := math.Sqrt(barsPerYear)

	if sd := math.Sqrt(variance); sd > 0 {
		sharpe = mean / sd * ann
	}
	if dd := math.Sqrt(downSq / float64(len(rets))); dd > 0 {
		sortino = mean / dd * ann
	}
	return sharpe, sortino
}
