package arrowexport

import (
	"bytes"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"

	"ichimoku-backtest/services/engine"
)

func sampleResult() *engine.Result {
	rows := make([]engine.SignalRow, 3)
	eq := make([]engine.EquityPoint, 3)
	for i := range rows {
		ts := int64(i+1) * 60000
		c := 100 + float64(i)
		rows[i] = engine.SignalRow{
			IndicatorRow: engine.IndicatorRow{
				Bar:    engine.Bar{Timestamp: ts, Open: c - 0.5, High: c + 0.5, Low: c - 1, Close: c, Volume: 2},
				Tenkan: c - 1, Kijun: c - 2, SpanA: c - 1.5, SpanB: c - 3,
				ATR: 1.5, EMA: c - 0.25,
			},
			TrendSignal: 1,
			Signal:      engine.SignalNone,
		}
		eq[i] = engine.EquityPoint{Timestamp: ts, Equity: 10000 + float64(i)}
	}
	rows[2].Signal = engine.SignalLong
	return &engine.Result{Symbol: "BTCUSDT", Rows: rows, Equity: eq}
}

func TestWriteResultRoundTrip(t *testing.T) {
	res := sampleResult()
	var buf bytes.Buffer
	if err := WriteResult(&buf, res); err != nil {
		t.Fatal(err)
	}

	rd, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer rd.Release()

	if !rd.Schema().Equal(Schema()) {
		t.Fatal("schema mismatch")
	}
	if !rd.Next() {
		t.Fatal("no record in stream")
	}
	rec := rd.Record()
	if rec.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3", rec.NumRows())
	}

	syms := rec.Column(0).(*array.String)
	if syms.Value(0) != "BTCUSDT" {
		t.Fatalf("symbol = %s, want BTCUSDT", syms.Value(0))
	}
	closes := rec.Column(5).(*array.Float64)
	if closes.Value(2) != 102 {
		t.Fatalf("close[2] = %v, want 102", closes.Value(2))
	}
	signals := rec.Column(14).(*array.Int8)
	if signals.Value(2) != int8(engine.SignalLong) {
		t.Fatalf("signal[2] = %d, want long", signals.Value(2))
	}
	equity := rec.Column(15).(*array.Float64)
	if equity.Value(1) != 10001 {
		t.Fatalf("equity[1] = %v, want 10001", equity.Value(1))
	}
	if rd.Next() {
		t.Fatal("stream should contain exactly one record")
	}
}

func TestWriteResultRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, &engine.Result{}); err == nil {
		t.Fatal("expected an error for an empty result")
	}
}

func TestWriteResultRejectsLengthMismatch(t *testing.T) {
	res := sampleResult()
	res.Equity = res.Equity[:2]
	var buf bytes.Buffer
	if err := WriteResult(&buf, res); err == nil {
		t.Fatal("expected an error for a curve/row length mismatch")
	}
}
