package indicators

import (
	"math"
	"testing"
	"time"

	"FlowCast/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

// naive reference implementations that recompute each window in full
func naiveSMA(xs []float64, w int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(w)
	}
	return out
}

func naiveRSI(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		gain, loss := 0.0, 0.0
		for j := i - n + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		if loss == 0 {
			out[i] = 100
			continue
		}
		rs := (gain / float64(n)) / (loss / float64(n))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func waveSeries(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	return xs
}

func TestSMAWarmupAndValues(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	got := SMA(xs, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4, 5}
	for i := range xs {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("sma[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSMAMatchesFullRecompute(t *testing.T) {
	xs := waveSeries(200)
	got := SMA(xs, 20)
	want := naiveSMA(xs, 20)
	for i := range xs {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("sma[%d] = %v, naive %v", i, got[i], want[i])
		}
	}
}

func TestEMARecursion(t *testing.T) {
	xs := []float64{10, 12, 11, 13}
	got := EMA(xs, 3) // alpha = 0.5
	want := []float64{10, 11, 11, 12}
	for i := range xs {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("ema[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEMADefinedFromFirstBar(t *testing.T) {
	xs := waveSeries(50)
	got := EMA(xs, 20)
	if got[0] != xs[0] {
		t.Fatalf("ema[0] = %v, want seed %v", got[0], xs[0])
	}
	for i, v := range got {
		if math.IsNaN(v) {
			t.Fatalf("ema[%d] is NaN, expected value from first bar", i)
		}
	}
}

func TestRSIUndefinedOnShortHistory(t *testing.T) {
	xs := waveSeries(10)
	got := RSI(xs, 14)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("rsi[%d] = %v on 10 bars, want NaN", i, v)
		}
	}
}

func TestRSIBoundsAndAllGains(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(100 + i)
	}
	got := RSI(up, 14)
	if got[len(got)-1] != 100 {
		t.Fatalf("rsi on monotone gains = %v, want 100", got[len(got)-1])
	}

	xs := waveSeries(300)
	for i, v := range RSI(xs, 14) {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi[%d] = %v out of [0,100]", i, v)
		}
	}
}

func TestRSIMatchesFullRecompute(t *testing.T) {
	xs := waveSeries(250)
	got := RSI(xs, 14)
	want := naiveRSI(xs, 14)
	for i := range xs {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("rsi[%d] = %v, naive %v", i, got[i], want[i])
		}
	}
}

func TestMACDIsEMADifference(t *testing.T) {
	xs := waveSeries(120)
	line, sig := MACD(xs, 12, 26, 9)
	fast := EMA(xs, 12)
	slow := EMA(xs, 26)
	for i := range xs {
		if !almostEqual(line[i], fast[i]-slow[i]) {
			t.Fatalf("macd[%d] = %v, want %v", i, line[i], fast[i]-slow[i])
		}
	}
	wantSig := EMA(line, 9)
	for i := range xs {
		if !almostEqual(sig[i], wantSig[i]) {
			t.Fatalf("signal[%d] = %v, want %v", i, sig[i], wantSig[i])
		}
	}
}

func TestComputeAlignment(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	closes := waveSeries(60)
	bars := make([]models.Bar, len(closes))
	for i := range bars {
		bars[i] = models.Bar{Timestamp: base.Add(time.Duration(i) * time.Hour), Close: closes[i], Volume: 100}
	}
	recs, err := Compute(bars, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != len(bars) {
		t.Fatalf("got %d records, want %d", len(recs), len(bars))
	}
	for i, r := range recs {
		if !r.Timestamp.Equal(bars[i].Timestamp) {
			t.Fatalf("record %d timestamp misaligned", i)
		}
	}
}

func TestComputeEmptyInput(t *testing.T) {
	if _, err := Compute(nil, DefaultParams()); err == nil {
		t.Fatalf("expected error on empty input")
	}
}
