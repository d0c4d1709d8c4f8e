// Grid search over stop-loss and reward/risk multipliers for one symbol.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"ichimoku-backtest/services/config"
	"ichimoku-backtest/services/engine"
	"ichimoku-backtest/services/marketdata"
)

func main() {
	csvPath := flag.String("csv", "", "path to OHLCV csv")
	slFlag := flag.String("sl", "1.0,1.5,2.0,2.5,3.0", "comma-separated stop-loss multipliers")
	rrFlag := flag.String("rr", "1.0,1.5,2.0,2.5,3.0", "comma-separated reward/risk multipliers")
	metric := flag.String("metric", "return", "objective: return, sharpe or drawdown")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, strat, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars, err := marketdata.LoadCSV(*csvPath)
	if err != nil {
		logger.Fatal("load csv", zap.Error(err))
	}
	logger.Info("bars loaded", zap.Int("bars", len(bars)))

	res, err := engine.Optimize(ctx, engine.OptimizeRequest{
		Bars:     bars,
		Base:     strat,
		SlRange:  parseFloats(*slFlag),
		RrRange:  parseFloats(*rrFlag),
		Maximize: objective(*metric),
		Workers:  cfg.Workers,
	})
	if err != nil {
		logger.Fatal("optimize failed", zap.Error(err))
	}

	printHeatmap(res)
	fmt.Printf("\nBest: sl=%.2f rr=%.2f  return=%.2f%%  sharpe=%.3f  maxdd=%.2f%%  trades=%d\n",
		res.Best.SlMult, res.Best.RrMult,
		res.BestStats.TotalReturnPct, res.BestStats.Sharpe,
		res.BestStats.MaxDrawdownPct, res.BestStats.NumTrades)
}

func parseFloats(s string) []float64 {
	var out []float64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			log.Fatalf("parse %q: %v", p, err)
		}
		out = append(out, f)
	}
	return out
}

func objective(name string) func(engine.Stats) float64 {
	switch name {
	case "sharpe":
		return func(s engine.Stats) float64 { return s.Sharpe }
	case "drawdown":
		return func(s engine.Stats) float64 { return -s.MaxDrawdownPct }
	case "return":
		return func(s engine.Stats) float64 { return s.TotalReturnPct }
	default:
		log.Fatalf("unknown metric %q", name)
		return nil
	}
}

func printHeatmap(res *engine.OptimizeResult) {
	cells := make([]engine.GridCell, len(res.Cells))
	copy(cells, res.Cells)
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Point.SlMult != cells[j].Point.SlMult {
			return cells[i].Point.SlMult < cells[j].Point.SlMult
		}
		return cells[i].Point.RrMult < cells[j].Point.RrMult
	})

	fmt.Printf("%6s %6s %10s %8s %9s %8s\n", "SL", "RR", "RETURN%", "SHARPE", "MAXDD%", "TRADES")
	for _, c := range cells {
		if c.Err != nil {
			fmt.Printf("%6.2f %6.2f ERROR: %v\n", c.Point.SlMult, c.Point.RrMult, c.Err)
			continue
		}
		fmt.Printf("%6.2f %6.2f %10.2f %8.3f %9.2f %8d\n",
			c.Point.SlMult, c.Point.RrMult,
			c.Stats.TotalReturnPct, c.Stats.Sharpe, c.Stats.MaxDrawdownPct, c.Stats.NumTrades)
	}
}
