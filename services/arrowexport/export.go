// Package arrowexport serializes enriched bar tables to Apache Arrow IPC so
// charting and analysis collaborators can consume run output without parsing
// CSV.
package arrowexport

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"ichimoku-backtest/services/engine"
)

// Schema returns the column layout of an exported run table.
func Schema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "symbol", Type: arrow.BinaryTypes.String},
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64},
		{Name: "open", Type: arrow.PrimitiveTypes.Float64},
		{Name: "high", Type: arrow.PrimitiveTypes.Float64},
		{Name: "low", Type: arrow.PrimitiveTypes.Float64},
		{Name: "close", Type: arrow.PrimitiveTypes.Float64},
		{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
		{Name: "tenkan", Type: arrow.PrimitiveTypes.Float64},
		{Name: "kijun", Type: arrow.PrimitiveTypes.Float64},
		{Name: "span_a", Type: arrow.PrimitiveTypes.Float64},
		{Name: "span_b", Type: arrow.PrimitiveTypes.Float64},
		{Name: "atr", Type: arrow.PrimitiveTypes.Float64},
		{Name: "ema", Type: arrow.PrimitiveTypes.Float64},
		{Name: "trend", Type: arrow.PrimitiveTypes.Int8},
		{Name: "signal", Type: arrow.PrimitiveTypes.Int8},
		{Name: "equity", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// WriteResult streams one run's enriched rows and equity curve as a single
// Arrow IPC record.
func WriteResult(w io.Writer, res *engine.Result) error {
	if res == nil || len(res.Rows) == 0 {
		return fmt.Errorf("no rows to export")
	}
	if len(res.Equity) != len(res.Rows) {
		return fmt.Errorf("equity curve length %d does not match %d rows", len(res.Equity), len(res.Rows))
	}

	pool := memory.NewGoAllocator()
	schema := Schema()
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	sym := b.Field(0).(*array.StringBuilder)
	ts := b.Field(1).(*array.Int64Builder)
	fl := make([]*array.Float64Builder, 0, 11)
	for _, i := range []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		fl = append(fl, b.Field(i).(*array.Float64Builder))
	}
	trend := b.Field(13).(*array.Int8Builder)
	signal := b.Field(14).(*array.Int8Builder)
	equity := b.Field(15).(*array.Float64Builder)

	for i, r := range res.Rows {
		sym.Append(res.Symbol)
		ts.Append(r.Timestamp)
		for j, v := range []float64{r.Open, r.High, r.Low, r.Close, r.Volume,
			r.Tenkan, r.Kijun, r.SpanA, r.SpanB, r.ATR, r.EMA} {
			fl[j].Append(v)
		}
		trend.Append(r.TrendSignal)
		signal.Append(int8(r.Signal))
		equity.Append(res.Equity[i].Equity)
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	return wr.Close()
}
