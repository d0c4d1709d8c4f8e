package marketdata

import (
	"testing"

	"ichimoku-backtest/services/engine"
)

func minuteBars(n int) []engine.Bar {
	bars := make([]engine.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = engine.Bar{
			Timestamp: int64(i) * 60000,
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 2,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func TestResampleFiveMinute(t *testing.T) {
	out, err := Resample(minuteBars(10), 5*60000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}
	b := out[0]
	if b.Timestamp != 0 {
		t.Fatalf("bucket start = %d, want 0", b.Timestamp)
	}
	if b.Open != 99.5 {
		t.Fatalf("open = %v, want first bar's open 99.5", b.Open)
	}
	if b.Close != 104 {
		t.Fatalf("close = %v, want last bar's close 104", b.Close)
	}
	if b.High != 105 || b.Low != 98 {
		t.Fatalf("range = [%v, %v], want [98, 105]", b.Low, b.High)
	}
	if b.Volume != 5 {
		t.Fatalf("volume = %v, want 5", b.Volume)
	}
	if out[1].Timestamp != 5*60000 {
		t.Fatalf("second bucket start = %d", out[1].Timestamp)
	}
}

func TestResamplePartialBucketKept(t *testing.T) {
	out, err := Resample(minuteBars(7), 5*60000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}
	if out[1].Volume != 2 {
		t.Fatalf("partial bucket volume = %v, want 2", out[1].Volume)
	}
}

func TestResampleValidation(t *testing.T) {
	if _, err := Resample(minuteBars(3), 0); err == nil {
		t.Fatal("expected an error for a zero bucket")
	}
	out, err := Resample(nil, 60000)
	if err != nil || out != nil {
		t.Fatalf("empty input: out=%v err=%v", out, err)
	}
}
