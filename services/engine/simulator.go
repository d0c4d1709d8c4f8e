package engine

// PositionSide is the simulator state: flat or holding one side.
type PositionSide int8

const (
	SideFlat PositionSide = iota
	SideLong
	SideShort
)

func (s PositionSide) String() string {
	switch s {
	case SideLong:
		return "Long"
	case SideShort:
		return "Short"
	default:
		return "Flat"
	}
}

// Position is the transient state between entry and exit fill. At most one
// position exists at any time.
type Position struct {
	Side       PositionSide
	EntryTime  int64
	EntryIndex int
	EntryPrice float64
	Size       float64
	Stop       float64
	Target     float64
	EntryFee   float64
}

// Trade is a completed round trip. Pnl is net of commission on both legs.
type Trade struct {
	Side       PositionSide
	EntryTime  int64
	ExitTime   int64
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Pnl        float64
	ReturnPct  float64
	ExitReason string
}

// EquityPoint marks cash plus unrealized PnL at one bar's close.
type EquityPoint struct {
	Timestamp int64
	Equity    float64
}

// SimResult is everything the simulation produced.
type SimResult struct {
	Trades []Trade
	Equity []EquityPoint

	// Open is a position still held at end of data; it stays unrealized and
	// the final equity points mark it to market instead of force-closing.
	Open *Position

	// Ruined reports that equity went non-positive; the run completed but
	// stopped taking new entries from that bar onward.
	Ruined bool

	// ExposureBars counts bars during which a position was held.
	ExposureBars int
}

const (
	exitReasonStop   = "StopLoss"
	exitReasonTarget = "TakeProfit"
)

// Simulate executes the bar-by-bar state machine over a signal table.
// Transitions are evaluated once per bar: an open position is tested against
// the bar's range first; only a flat book considers the bar's signal. When a
// bar's range reaches both stop and target, the stop is assumed to execute
// first -- the conservative resolution, since the true intrabar order is not
// observable from OHLC data.
func Simulate(rows []SignalRow, cfg Config) SimResult {
	res := SimResult{
		Trades: []Trade{},
		Equity: make([]EquityPoint, 0, len(rows)),
	}
	cash := cfg.InitialCash
	var pos *Position

	for t, r := range rows {
		held := pos != nil

		if pos != nil {
			if price, reason, hit := resolveBracket(pos, r.Bar); hit {
				gross := closePnlGross(pos, price)
				exitFee := cfg.Commission * price * pos.Size
				cash += gross - exitFee
				tr := Trade{
					Side:       pos.Side,
					EntryTime:  pos.EntryTime,
					ExitTime:   r.Timestamp,
					EntryPrice: pos.EntryPrice,
					ExitPrice:  price,
					Size:       pos.Size,
					Pnl:        gross - pos.EntryFee - exitFee,
					ExitReason: reason,
				}
				if notional := tr.EntryPrice * tr.Size; notional > 0 {
					tr.ReturnPct = tr.Pnl / notional * 100
				}
				res.Trades = append(res.Trades, tr)
				pos = nil
			}
		} else if !res.Ruined && r.Signal != SignalNone && r.ATR > 0 && cash > 0 {
			pos = openPosition(t, r, cash, cfg)
			if pos != nil {
				cash -= pos.EntryFee
			}
		}

		equity := cash
		if pos != nil {
			equity += unrealizedPnl(pos, r.Close)
		}
		if held || pos != nil {
			res.ExposureBars++
		}
		if equity <= 0 {
			res.Ruined = true
		}
		res.Equity = append(res.Equity, EquityPoint{Timestamp: r.Timestamp, Equity: equity})
	}

	res.Open = pos
	return res
}

// openPosition sizes an entry at the bar's close with an ATR bracket. The
// allocated notional never exceeds margin-adjusted buying power.
func openPosition(t int, r SignalRow, equity float64, cfg Config) *Position {
	stopDist := r.ATR * cfg.SlMult
	targetDist := stopDist * cfg.RrMult

	notional := cfg.SizeFraction * equity
	if maxNotional := equity / cfg.Margin; notional > maxNotional {
		notional = maxNotional
	}
	size := notional / r.Close
	if size <= 0 {
		return nil
	}

	p := &Position{
		EntryTime:  r.Timestamp,
		EntryIndex: t,
		EntryPrice: r.Close,
		Size:       size,
		EntryFee:   cfg.Commission * notional,
	}
	if r.Signal == SignalLong {
		p.Side = SideLong
		p.Stop = r.Close - stopDist
		p.Target = r.Close + targetDist
	} else {
		p.Side = SideShort
		p.Stop = r.Close + stopDist
		p.Target = r.Close - targetDist
	}
	return p
}

// resolveBracket tests whether the bar's range reaches the stop or target.
// Stop wins any same-bar tie.
func resolveBracket(p *Position, bar Bar) (price float64, reason string, hit bool) {
	if p.Side == SideLong {
		if bar.Low <= p.Stop {
			return p.Stop, exitReasonStop, true
		}
		if bar.High >= p.Target {
			return p.Target, exitReasonTarget, true
		}
		return 0, "", false
	}
	if bar.High >= p.Stop {
		return p.Stop, exitReasonStop, true
	}
	if bar.Low <= p.Target {
		return p.Target, exitReasonTarget, true
	}
	return 0, "", false
}

func closePnlGross(p *Position, exit float64) float64 {
	if p.Side == SideLong {
		return (exit - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - exit) * p.Size
}

func unrealizedPnl(p *Position, mark float64) float64 {
	if p.Side == SideLong {
		return (mark - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - mark) * p.Size
}
