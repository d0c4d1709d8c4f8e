// Package marketdata loads OHLCV candle tables from local files and external
// stores and normalizes them for the simulation engine.
package marketdata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ichimoku-backtest/services/engine"
)

// LoadCSV reads an OHLCV file (timestamp,open,high,low,close,volume) into an
// ordered bar table. Timestamps are unix milliseconds. Exports from charting
// tools are accepted as-is: UTF-16 files, BOMs, quoted fields and a header
// row are all handled, and malformed rows are skipped rather than fatal.
func LoadCSV(path string) ([]engine.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decodedReader(f)
	if err != nil {
		return nil, err
	}
	bars, err := ReadBars(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// decodedReader detects a UTF-16 BOM and wraps the file in a decoder when one
// is present.
func decodedReader(f *os.File) (io.Reader, error) {
	br := bufio.NewReader(f)
	head, _ := br.Peek(2)
	if len(head) >= 2 && ((head[0] == 0xFF && head[1] == 0xFE) || (head[0] == 0xFE && head[1] == 0xFF)) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		enc := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
		if head[0] == 0xFE {
			enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
		}
		return transform.NewReader(f, enc.NewDecoder()), nil
	}
	return br, nil
}

// ReadBars parses OHLCV records from r. Rows are sorted by timestamp and
// duplicate timestamps keep the first occurrence. The returned table still
// goes through engine.ValidateBars before a run; this layer only cleans up
// file-format noise.
func ReadBars(r io.Reader) ([]engine.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var bars []engine.Bar
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++
		if len(rec) < 5 {
			continue
		}
		tsField := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		ts, err := strconv.ParseInt(tsField, 10, 64)
		if err != nil {
			// Header row or stray text.
			continue
		}
		b := engine.Bar{Timestamp: ts}
		ok := true
		for i, dst := range []*float64{&b.Open, &b.High, &b.Low, &b.Close} {
			d, err := decimal.NewFromString(strings.TrimSpace(rec[i+1]))
			if err != nil {
				ok = false
				break
			}
			*dst, _ = d.Float64()
		}
		if !ok {
			continue
		}
		if len(rec) > 5 {
			if d, err := decimal.NewFromString(strings.TrimSpace(rec[5])); err == nil {
				b.Volume, _ = d.Float64()
			}
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Timestamp == b.Timestamp {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
