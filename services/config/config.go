// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ichimoku-backtest/services/engine"
)

// Service is everything the binaries need beyond strategy parameters.
type Service struct {
	ListenAddr string

	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseTable    string
	ClickHouseUser     string
	ClickHousePassword string

	Symbols  []string
	Interval string
	Workers  int
}

// Load reads the environment (after a best-effort .env load) and applies
// defaults for anything unset. Strategy parameters come from
// engine.DefaultConfig overlaid with any STRAT_* variables.
func Load() (Service, engine.Config, error) {
	_ = godotenv.Load()

	svc := Service{
		ListenAddr:         env("LISTEN_ADDR", ":8080"),
		ClickHouseAddr:     env("CH_ADDR", "localhost:9000"),
		ClickHouseDatabase: env("CH_DATABASE", "backtest"),
		ClickHouseTable:    env("CH_TABLE", "candles"),
		ClickHouseUser:     env("CH_USER", "backtest"),
		ClickHousePassword: env("CH_PASSWORD", ""),
		Interval:           env("INTERVAL", "1d"),
	}
	for _, s := range strings.Split(env("SYMBOLS", ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			svc.Symbols = append(svc.Symbols, s)
		}
	}
	var err error
	if svc.Workers, err = envInt("WORKERS", 4); err != nil {
		return svc, engine.Config{}, err
	}

	strat, err := strategyFromEnv()
	if err != nil {
		return svc, engine.Config{}, err
	}
	return svc, strat, nil
}

func strategyFromEnv() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	ints := map[string]*int{
		"STRAT_TENKAN_LEN":   &cfg.TenkanLen,
		"STRAT_KIJUN_LEN":    &cfg.KijunLen,
		"STRAT_SENKOU_B_LEN": &cfg.SenkouBLen,
		"STRAT_ATR_LEN":      &cfg.AtrLen,
		"STRAT_EMA_LEN":      &cfg.EmaLen,
		"STRAT_BACK_CANDLES": &cfg.EmaBackCandles,
		"STRAT_LOOKBACK":     &cfg.Lookback,
		"STRAT_MIN_CONFIRM":  &cfg.MinConfirm,
	}
	for k, dst := range ints {
		v, err := envInt(k, *dst)
		if err != nil {
			return cfg, err
		}
		*dst = v
	}
	floats := map[string]*float64{
		"STRAT_SL_MULT":       &cfg.SlMult,
		"STRAT_RR_MULT":       &cfg.RrMult,
		"STRAT_CASH":          &cfg.InitialCash,
		"STRAT_COMMISSION":    &cfg.Commission,
		"STRAT_MARGIN":        &cfg.Margin,
		"STRAT_SIZE_FRACTION": &cfg.SizeFraction,
		"STRAT_BARS_PER_YEAR": &cfg.BarsPerYear,
	}
	for k, dst := range floats {
		v, err := envFloat(k, *dst)
		if err != nil {
			return cfg, err
		}
		*dst = v
	}
	return cfg, nil
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return n, nil
}

func envFloat(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return f, nil
}
