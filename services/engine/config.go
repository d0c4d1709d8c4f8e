package engine

import "fmt"

// Config carries every tunable for one backtest run. Parameters are always
// passed explicitly; there is no package-level mutable state, so concurrent
// runs with different settings cannot interfere.
type Config struct {
	// Ichimoku window lengths (bars).
	TenkanLen  int
	KijunLen   int
	SenkouBLen int

	// ATR window for stop/target sizing.
	AtrLen int

	// Stop distance = ATR * SlMult; target distance = stop distance * RrMult.
	SlMult float64
	RrMult float64

	// EMA trend filter.
	EmaLen         int
	EmaBackCandles int

	// Cloud confirmation.
	Lookback   int
	MinConfirm int

	// Account.
	InitialCash  float64
	Commission   float64 // fraction of notional, charged on entry and exit
	Margin       float64 // e.g. 0.1 for 1:10 leverage
	SizeFraction float64 // fraction of equity allocated per entry

	// Annualization basis for Sharpe/Sortino (252 for daily bars).
	BarsPerYear float64
}

// DefaultConfig returns the stock parameter set the strategy was tuned with.
func DefaultConfig() Config {
	return Config{
		TenkanLen:      9,
		KijunLen:       26,
		SenkouBLen:     52,
		AtrLen:         14,
		SlMult:         1.5,
		RrMult:         2.0,
		EmaLen:         100,
		EmaBackCandles: 7,
		Lookback:       10,
		MinConfirm:     5,
		InitialCash:    1_000_000,
		Commission:     0.0002,
		Margin:         0.1,
		SizeFraction:   0.99,
		BarsPerYear:    252,
	}
}

// Validate rejects a configuration before any computation is attempted.
func (c Config) Validate() error {
	type check struct {
		name string
		ok   bool
	}
	checks := []check{
		{"tenkan length", c.TenkanLen >= 1},
		{"kijun length", c.KijunLen >= 1},
		{"senkou B length", c.SenkouBLen >= 1},
		{"atr length", c.AtrLen >= 1},
		{"sl multiplier", c.SlMult > 0},
		{"rr multiplier", c.RrMult > 0},
		{"ema length", c.EmaLen >= 1},
		{"ema back candles", c.EmaBackCandles >= 0},
		{"lookback", c.Lookback >= 1},
		{"min confirm", c.MinConfirm >= 1 && c.MinConfirm <= c.Lookback},
		{"initial cash", c.InitialCash > 0},
		{"commission", c.Commission >= 0 && c.Commission < 1},
		{"margin", c.Margin > 0 && c.Margin <= 1},
		{"size fraction", c.SizeFraction > 0 && c.SizeFraction <= 1},
		{"bars per year", c.BarsPerYear > 0},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s out of range", ErrInvalidConfig, ch.name)
		}
	}
	return nil
}

// warmupBars is the index of the first bar with every numeric indicator
// populated: the slowest midpoint window must have filled, and ATR needs a
// previous close plus AtrLen true ranges. The chikou confirmations are not
// part of warm-up; they are false until the displaced cloud boundary exists.
func (c Config) warmupBars() int {
	w := c.SenkouBLen
	if c.TenkanLen > w {
		w = c.TenkanLen
	}
	if c.KijunLen > w {
		w = c.KijunLen
	}
	w--
	if c.AtrLen > w {
		w = c.AtrLen
	}
	return w
}
