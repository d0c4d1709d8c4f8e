// Installer for Binance spot monthly klines into the ClickHouse candle store.
package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ichimoku-backtest/services/clickhouse"
	"ichimoku-backtest/services/config"
)

func main() {
	startYM := flag.String("start", "2020-01", "first month (2006-01)")
	endYM := flag.String("end", time.Now().UTC().Format("2006-01"), "last month (2006-01)")
	interval := flag.String("interval", "1d", "kline interval to download")
	baseURL := flag.String("base-url", "https://data.binance.vision", "archive base url")
	flag.Parse()

	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if len(cfg.Symbols) == 0 {
		log.Fatal("set SYMBOLS to the symbols to ingest")
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

	months, err := ymRange(*startYM, *endYM)
	if err != nil {
		logger.Fatal("month range", zap.Error(err))
	}

	for _, sym := range cfg.Symbols {
		for _, m := range months {
			if ctx.Err() != nil {
				logger.Info("interrupted")
				return
			}
			n, err := ingestMonth(ctx, store, *baseURL, sym, *interval, m)
			if err != nil {
				// Missing months are common at series edges; keep going.
				logger.Warn("month ingest failed",
					zap.String("symbol", sym),
					zap.String("month", m.Format("2006-01")),
					zap.Error(err),
				)
				continue
			}
			logger.Info("month ingested",
				zap.String("symbol", sym),
				zap.String("month", m.Format("2006-01")),
				zap.Int("rows", n),
			)
		}
	}
}

func ymRange(startYM, endYM string) ([]time.Time, error) {
	start, err := time.Parse("2006-01", startYM)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse("2006-01", endYM)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if end.Before(start) {
		return nil, errors.New("end month before start month")
	}
	var out []time.Time
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		out = append(out, cur)
	}
	return out, nil
}

func ingestMonth(ctx context.Context, store *clickhouse.Store, baseURL, symbol, interval string, month time.Time) (int, error) {
	url := fmt.Sprintf("%s/data/spot/monthly/klines/%s/%s/%s-%s-%04d-%02d.zip",
		baseURL, symbol, interval, symbol, interval, month.Year(), int(month.Month()))

	data, err := httpGet(ctx, url)
	if err != nil {
		return 0, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("zip open: %w", err)
	}
	var entry *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			entry = f
			break
		}
	}
	if entry == nil {
		return 0, errors.New("no csv in zip")
	}
	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("zip entry open: %w", err)
	}
	defer rc.Close()

	candles, err := parseKlines(rc, symbol, interval)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, nil
	}
	if err := store.InsertCandles(ctx, candles); err != nil {
		return 0, err
	}
	return len(candles), nil
}

// parseKlines reads Binance kline CSV rows. Columns: open time(ms), open,
// high, low, close, volume, then fields this store does not keep.
func parseKlines(r io.Reader, symbol, interval string) ([]clickhouse.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []clickhouse.Candle
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		if len(rec) < 6 {
			continue
		}
		var c clickhouse.Candle
		if _, err := fmt.Sscanf(strings.TrimSpace(rec[0]), "%d", &c.OpenTimeMs); err != nil {
			continue
		}
		c.Symbol = symbol
		c.Interval = interval
		fields := []*decimal.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
		ok := true
		for i, dst := range fields {
			d, err := decimal.NewFromString(strings.TrimSpace(rec[i+1]))
			if err != nil {
				ok = false
				break
			}
			*dst = d
		}
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func httpGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 180 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
