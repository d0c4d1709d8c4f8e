// Multi-symbol backtest: loads candles from ClickHouse and runs every symbol
// across a worker pool, printing a per-symbol table plus an average row.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ichimoku-backtest/services/clickhouse"
	"ichimoku-backtest/services/config"
	"ichimoku-backtest/services/engine"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols; default: every symbol in the store")
	fromFlag := flag.String("from", "", "start date (2006-01-02); default: beginning of data")
	toFlag := flag.String("to", "", "end date (2006-01-02); default: now")
	flag.Parse()

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

	store, err := clickhouse.Open(ctx, clickhouse.Options{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Table:    cfg.ClickHouseTable,
		User:     cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
	})
	if err != nil {
		logger.Fatal("clickhouse connect", zap.Error(err))
	}
	defer store.Close()

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		symbols = cfg.Symbols
	}
	if len(symbols) == 0 {
		if symbols, err = store.Symbols(ctx, cfg.Interval); err != nil {
			logger.Fatal("list symbols", zap.Error(err))
		}
	}
	if len(symbols) == 0 {
		logger.Fatal("no symbols to run")
	}

	from, to := timeRange(*fromFlag, *toFlag)

	runs := make([]engine.SymbolRun, 0, len(symbols))
	for _, sym := range symbols {
		bars, err := store.QueryBars(ctx, sym, cfg.Interval, from, to)
		if err != nil {
			logger.Warn("bar load failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		runs = append(runs, engine.SymbolRun{Symbol: sym, Bars: bars, Config: strat})
	}

	outcomes := engine.RunBatch(ctx, runs, cfg.Workers, logger)
	printTable(outcomes)
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func timeRange(fromStr, toStr string) (time.Time, time.Time) {
	from := time.UnixMilli(0)
	to := time.Now().UTC()
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			log.Fatalf("parse -from: %v", err)
		}
		from = t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			log.Fatalf("parse -to: %v", err)
		}
		to = t
	}
	return from, to
}

func printTable(outcomes []engine.SymbolOutcome) {
	fmt.Printf("%-12s %8s %10s %10s %9s %9s %8s %8s\n",
		"SYMBOL", "TRADES", "RETURN%", "B&H%", "MAXDD%", "WINRATE%", "PF", "SHARPE")

	var ok int
	var sumRet, sumBH, sumDD, sumWR, sumSharpe float64
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-12s ERROR: %v\n", o.Symbol, o.Err)
			continue
		}
		st := o.Result.Stats
		pf := fmt.Sprintf("%8.3f", st.ProfitFactor)
		if st.NoTrades {
			pf = "       -"
		}
		fmt.Printf("%-12s %8d %10.2f %10.2f %9.2f %9.1f %s %8.3f\n",
			o.Symbol, st.NumTrades, st.TotalReturnPct, st.BuyHoldReturnPct,
			st.MaxDrawdownPct, st.WinRatePct, pf, st.Sharpe)
		ok++
		sumRet += st.TotalReturnPct
		sumBH += st.BuyHoldReturnPct
		sumDD += st.MaxDrawdownPct
		sumWR += st.WinRatePct
		sumSharpe += st.Sharpe
	}
	if ok > 0 {
		n := float64(ok)
		fmt.Printf("%-12s %8s %10.2f %10.2f %9.2f %9.1f %8s %8.3f\n",
			"AVERAGE", "-", sumRet/n, sumBH/n, sumDD/n, sumWR/n, "-", sumSharpe/n)
	}
}
