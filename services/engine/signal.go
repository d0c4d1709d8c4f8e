package engine

// Signal is the ternary per-bar entry decision.
type Signal int8

const (
	SignalShort Signal = -1
	SignalNone  Signal = 0
	SignalLong  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "Long"
	case SignalShort:
		return "Short"
	default:
		return "None"
	}
}

// SignalRow is an IndicatorRow with the derived cloud boundaries, trend
// filter state and final signal attached.
type SignalRow struct {
	IndicatorRow

	CloudTop    float64
	CloudBottom float64

	// TrendSignal is +1 when every bar of the trend window sat entirely
	// above the EMA, -1 when entirely below, 0 otherwise.
	TrendSignal int8

	Signal Signal
}

// GenerateSignals derives the per-bar signal table. The rolling all-of-window
// and confirmation-count tests are maintained incrementally instead of being
// recomputed per bar.
func GenerateSignals(rows []IndicatorRow, cfg Config) []SignalRow {
	out := make([]SignalRow, len(rows))

	trendWin := cfg.EmaBackCandles + 1
	aboveEma := make([]bool, len(rows))
	belowEma := make([]bool, len(rows))
	aboveCloud := make([]bool, len(rows))
	belowCloud := make([]bool, len(rows))

	var aboveEmaN, belowEmaN, aboveCloudN, belowCloudN int

	for t, r := range rows {
		top := r.SpanA
		bot := r.SpanB
		if r.SpanB > top {
			top, bot = r.SpanB, r.SpanA
		}

		// NaN EMA during its own warm-up compares false on both sides,
		// leaving the trend filter at 0 for those rows.
		aboveEma[t] = r.Open > r.EMA && r.Close > r.EMA
		belowEma[t] = r.Open < r.EMA && r.Close < r.EMA
		aboveCloud[t] = r.Open > top && r.Close > top
		belowCloud[t] = r.Open < bot && r.Close < bot

		aboveEmaN += btoi(aboveEma[t])
		belowEmaN += btoi(belowEma[t])
		aboveCloudN += btoi(aboveCloud[t])
		belowCloudN += btoi(belowCloud[t])
		if j := t - trendWin; j >= 0 {
			aboveEmaN -= btoi(aboveEma[j])
			belowEmaN -= btoi(belowEma[j])
		}
		if j := t - cfg.Lookback; j >= 0 {
			aboveCloudN -= btoi(aboveCloud[j])
			belowCloudN -= btoi(belowCloud[j])
		}

		var trend int8
		if t >= trendWin-1 {
			switch {
			case aboveEmaN == trendWin:
				trend = 1
			case belowEmaN == trendWin:
				trend = -1
			}
		}

		// Strict full-window confirmation counts.
		upOK := t >= cfg.Lookback-1 && aboveCloudN >= cfg.MinConfirm
		downOK := t >= cfg.Lookback-1 && belowCloudN >= cfg.MinConfirm

		pierceUp := r.Open < top && r.Close > top
		pierceDown := r.Open > bot && r.Close < bot

		longCond := upOK && pierceUp && trend == 1
		shortCond := downOK && pierceDown && trend == -1

		sig := SignalNone
		switch {
		case longCond && !shortCond:
			sig = SignalLong
		case shortCond && !longCond:
			sig = SignalShort
		}

		out[t] = SignalRow{
			IndicatorRow: r,
			CloudTop:     top,
			CloudBottom:  bot,
			TrendSignal:  trend,
			Signal:       sig,
		}
	}
	return out
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
