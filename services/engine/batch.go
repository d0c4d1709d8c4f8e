package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SymbolRun is one independent simulation: its own bar table and parameters.
type SymbolRun struct {
	Symbol string
	Bars   []Bar
	Config Config
}

// SymbolOutcome records a per-symbol result or failure. A failed symbol never
// aborts its siblings.
type SymbolOutcome struct {
	Symbol string
	Result *Result
	Err    error
}

// RunBatch executes independent symbol runs across a worker pool. Runs share
// no mutable state, so the only coordination is the work channel. Outcomes
// are returned in input order. A cancelled context leaves the remaining
// outcomes with ctx.Err().
func RunBatch(ctx context.Context, runs []SymbolRun, workers int, logger *zap.Logger) []SymbolOutcome {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(runs) {
		workers = len(runs)
	}

	outcomes := make([]SymbolOutcome, len(runs))
	started := make([]bool, len(runs))
	work := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				started[i] = true
				run := runs[i]
				res, err := Run(run.Bars, run.Config)
				if err != nil {
					logger.Warn("symbol run failed",
						zap.String("symbol", run.Symbol),
						zap.Error(err),
					)
				} else {
					res.Symbol = run.Symbol
					logger.Info("symbol run complete",
						zap.String("symbol", run.Symbol),
						zap.Int("trades", res.Stats.NumTrades),
						zap.Float64("return_pct", res.Stats.TotalReturnPct),
						zap.Bool("ruined", res.Ruined),
					)
				}
				outcomes[i] = SymbolOutcome{Symbol: run.Symbol, Result: res, Err: err}
			}
		}()
	}

feed:
	for i := range runs {
		select {
		case work <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		// Mark runs that never reached a worker.
		for i := range outcomes {
			if !started[i] {
				outcomes[i] = SymbolOutcome{Symbol: runs[i].Symbol, Err: err}
			}
		}
	}
	return outcomes
}
