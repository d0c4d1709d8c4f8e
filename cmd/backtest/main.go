// Single-symbol backtest over a local OHLCV CSV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"ichimoku-backtest/services/arrowexport"
	"ichimoku-backtest/services/config"
	"ichimoku-backtest/services/engine"
	"ichimoku-backtest/services/marketdata"
)

func main() {
	csvPath := flag.String("csv", "", "path to OHLCV csv (timestamp,open,high,low,close,volume)")
	symbol := flag.String("symbol", "UNKNOWN", "symbol label for reports")
	slMult := flag.Float64("sl", 0, "override stop-loss ATR multiplier")
	rrMult := flag.Float64("rr", 0, "override reward/risk multiplier")
	arrowOut := flag.String("arrow", "", "optional path for an Arrow IPC export of the run")
	resampleMin := flag.Int64("resample", 0, "aggregate input bars into buckets of this many minutes")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_, cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if *slMult > 0 {
		cfg.SlMult = *slMult
	}
	if *rrMult > 0 {
		cfg.RrMult = *rrMult
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	bars, err := marketdata.LoadCSV(*csvPath)
	if err != nil {
		logger.Fatal("load csv", zap.Error(err))
	}
	logger.Info("bars loaded", zap.String("csv", *csvPath), zap.Int("bars", len(bars)))

	if *resampleMin > 0 {
		if bars, err = marketdata.Resample(bars, *resampleMin*60000); err != nil {
			logger.Fatal("resample", zap.Error(err))
		}
		logger.Info("bars resampled", zap.Int64("minutes", *resampleMin), zap.Int("bars", len(bars)))
	}

	res, err := engine.Run(bars, cfg)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	res.Symbol = *symbol

	printSummary(res)

	if *arrowOut != "" {
		f, err := os.Create(*arrowOut)
		if err != nil {
			logger.Fatal("create arrow file", zap.Error(err))
		}
		defer f.Close()
		if err := arrowexport.WriteResult(f, res); err != nil {
			logger.Fatal("arrow export", zap.Error(err))
		}
		logger.Info("arrow export written", zap.String("path", *arrowOut))
	}
}

func printSummary(res *engine.Result) {
	st := res.Stats
	fmt.Printf("=== Ichimoku Backtest: %s ===\n", res.Symbol)
	fmt.Printf("Bars: %d  Trades: %d  Exposure: %.1f%%\n", len(res.Rows), st.NumTrades, st.ExposurePct)
	fmt.Printf("Return: %.2f%%  Buy&Hold: %.2f%%  MaxDD: %.2f%%\n",
		st.TotalReturnPct, st.BuyHoldReturnPct, st.MaxDrawdownPct)
	fmt.Printf("WinRate: %.1f%%  ProfitFactor: %.3f  Sharpe: %.3f  Sortino: %.3f\n",
		st.WinRatePct, st.ProfitFactor, st.Sharpe, st.Sortino)
	if st.NoTrades {
		fmt.Println("NOTE: no trades were taken")
	}
	if res.Ruined {
		fmt.Println("NOTE: equity hit zero during the run")
	}
	if p := res.OpenPosition; p != nil {
		fmt.Printf("Open %s position from %d at %.4f (marked to market)\n",
			p.Side, p.EntryTime, p.EntryPrice)
	}
}
