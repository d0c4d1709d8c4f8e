// Package clickhouse persists and serves OHLCV candles from a ClickHouse
// table keyed by (symbol, interval, open_time_ms).
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	chproto "github.com/ClickHouse/clickhouse-go/v2/lib/proto"
	"github.com/shopspring/decimal"

	"ichimoku-backtest/services/engine"
)

// Options configures the connection and the target table.
type Options struct {
	Addr     string
	Database string
	Table    string
	User     string
	Password string
}

// Candle is the storage-side row. Prices stay decimal at this boundary and
// only become float64 when handed to the simulation engine.
type Candle struct {
	Symbol     string
	Interval   string
	OpenTimeMs uint64
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
}

// Store wraps one ClickHouse connection.
type Store struct {
	conn     ch.Conn
	database string
	table    string
}

// Open connects, pings and ensures the candle table exists.
func Open(ctx context.Context, opts Options) (*Store, error) {
	conn, err := ch.Open(&ch.Options{
		Addr: []string{opts.Addr},
		Auth: ch.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		Settings: ch.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", explain(err))
	}
	s := &Store{conn: conn, database: opts.Database, table: opts.Table}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.conn.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database)); err != nil {
		return fmt.Errorf("create database: %w", explain(err))
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			symbol String,
			interval LowCardinality(String),
			open_time_ms UInt64,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			ingested_at DateTime64(3),
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (symbol, interval, open_time_ms)
		SETTINGS index_granularity = 8192
	`, s.database, s.table)
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", explain(err))
	}
	return nil
}

// InsertCandles batch-inserts with insert deduplication on. The
// ReplacingMergeTree version column keeps the newest write for a key that is
// re-ingested later.
func (s *Store) InsertCandles(ctx context.Context, candles []Candle) error {
	if len(candles) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.%s SETTINGS insert_deduplicate=1", s.database, s.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", explain(err))
	}
	now := time.Now().UTC()
	ver := uint64(now.UnixNano())
	for _, c := range candles {
		o, _ := c.Open.Float64()
		h, _ := c.High.Float64()
		l, _ := c.Low.Float64()
		cl, _ := c.Close.Float64()
		v, _ := c.Volume.Float64()
		if err := batch.Append(c.Symbol, c.Interval, c.OpenTimeMs, o, h, l, cl, v, now, ver); err != nil {
			return fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("batch send: %w", explain(err))
	}
	return nil
}

// QueryBars returns an ordered duplicate-free bar table for one symbol and
// interval. FINAL collapses ReplacingMergeTree versions so re-ingested rows
// appear once.
func (s *Store) QueryBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]engine.Bar, error) {
	q := fmt.Sprintf(`
		SELECT open_time_ms, open, high, low, close, volume
		FROM %s.%s FINAL
		WHERE symbol = ? AND interval = ? AND open_time_ms >= ? AND open_time_ms < ?
		ORDER BY open_time_ms
	`, s.database, s.table)
	rows, err := s.conn.Query(ctx, q, symbol, interval,
		uint64(from.UnixMilli()), uint64(to.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query bars %s/%s: %w", symbol, interval, explain(err))
	}
	defer rows.Close()

	var bars []engine.Bar
	for rows.Next() {
		var ts uint64
		var b engine.Bar
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = int64(ts)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bars: %w", explain(err))
	}
	return dedupeOrdered(bars), nil
}

// Symbols lists the distinct symbols stored for an interval.
func (s *Store) Symbols(ctx context.Context, interval string) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s.%s WHERE interval = ? ORDER BY symbol", s.database, s.table)
	rows, err := s.conn.Query(ctx, q, interval)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", explain(err))
	}
	defer rows.Close()

	var syms []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

// dedupeOrdered drops repeated timestamps from a sorted table. FINAL should
// already guarantee this; unmerged parts on older servers may not.
func dedupeOrdered(bars []engine.Bar) []engine.Bar {
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp }) {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	}
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Timestamp == b.Timestamp {
			continue
		}
		out = append(out, b)
	}
	return out
}

// explain unwraps server exceptions into a readable message.
func explain(err error) error {
	var ex *chproto.Exception
	if errors.As(err, &ex) {
		return fmt.Errorf("clickhouse [%d] %s (%s)", ex.Code, ex.Message, ex.Name)
	}
	return err
}
