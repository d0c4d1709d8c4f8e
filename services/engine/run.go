package engine

// Result bundles every artifact of a single-symbol run: the enriched bar
// table for charting collaborators, the trade list, the equity curve and the
// aggregated statistics.
type Result struct {
	Symbol string
	Rows   []SignalRow
	Trades []Trade
	Equity []EquityPoint
	Stats  Stats

	Ruined       bool
	OpenPosition *Position
}

// Run executes the full pipeline on an ordered bar table: configuration and
// schema validation, indicator computation, signal derivation, simulation and
// statistics. It is pure and synchronous; concurrent calls with independent
// inputs are safe.
func Run(bars []Bar, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	ind, err := ComputeIndicators(bars, cfg)
	if err != nil {
		return nil, err
	}
	rows := GenerateSignals(ind, cfg)
	sim := Simulate(rows, cfg)
	return &Result{
		Rows:         rows,
		Trades:       sim.Trades,
		Equity:       sim.Equity,
		Stats:        ComputeStats(sim, rows, cfg),
		Ruined:       sim.Ruined,
		OpenPosition: sim.Open,
	}, nil
}
