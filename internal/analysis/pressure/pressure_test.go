package pressure

import (
	"errors"
	"math"
	"testing"
	"time"

	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
)

func mkBars(closes, volumes []float64) []models.Bar {
	base := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i := range closes {
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "AAPL",
			Close:     closes[i],
			Volume:    volumes[i],
		}
	}
	return bars
}

func TestAnalyzeEmptyInput(t *testing.T) {
	_, err := Analyze(nil)
	if !errors.Is(err, analysis.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestAnalyzeAttribution(t *testing.T) {
	bars := mkBars(
		[]float64{10, 11, 9, 9, 12},
		[]float64{100, 100, 100, 100, 100},
	)
	recs, err := Analyze(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != len(bars) {
		t.Fatalf("expected %d records, got %d", len(bars), len(recs))
	}

	wantBuy := []float64{0, 100, 0, 0, 100}
	wantSell := []float64{0, 0, 100, 0, 0}
	wantNet := []float64{0, 100, -100, 0, 100}
	wantCum := []float64{0, 100, 0, 0, 100}
	for i, r := range recs {
		if r.BuyVolume != wantBuy[i] {
			t.Fatalf("bar %d: buy = %v, want %v", i, r.BuyVolume, wantBuy[i])
		}
		if r.SellVolume != wantSell[i] {
			t.Fatalf("bar %d: sell = %v, want %v", i, r.SellVolume, wantSell[i])
		}
		if r.NetPressure != wantNet[i] {
			t.Fatalf("bar %d: net = %v, want %v", i, r.NetPressure, wantNet[i])
		}
		if r.CumulativePressure != wantCum[i] {
			t.Fatalf("bar %d: cumulative = %v, want %v", i, r.CumulativePressure, wantCum[i])
		}
	}
}

func TestVolumeConservedOnMovingBars(t *testing.T) {
	bars := mkBars(
		[]float64{10, 12, 11, 11, 15, 14},
		[]float64{50, 80, 120, 90, 60, 75},
	)
	recs, err := Analyze(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		got := recs[i].BuyVolume + recs[i].SellVolume
		if change != 0 && got != bars[i].Volume {
			t.Fatalf("bar %d: buy+sell = %v, want full volume %v", i, got, bars[i].Volume)
		}
		if change == 0 && got != 0 {
			t.Fatalf("bar %d: flat bar attributed volume %v", i, got)
		}
	}
}

func TestImbalanceBounds(t *testing.T) {
	bars := mkBars(
		[]float64{10, 10, 11, 8, 8.5, 8.5, 20},
		[]float64{0, 10, 300, 42, 7, 0, 1e9},
	)
	recs, err := Analyze(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range recs {
		if math.IsNaN(r.Imbalance) || r.Imbalance < -1 || r.Imbalance > 1 {
			t.Fatalf("bar %d: imbalance %v out of [-1,1]", i, r.Imbalance)
		}
	}
}

func TestCumulativeIsRunningSum(t *testing.T) {
	bars := mkBars(
		[]float64{5, 6, 4, 4, 7, 3, 3.5},
		[]float64{10, 20, 30, 40, 50, 60, 70},
	)
	recs, err := Analyze(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0.0
	for i, r := range recs {
		sum += r.NetPressure
		if r.CumulativePressure != sum {
			t.Fatalf("bar %d: cumulative %v, want running sum %v", i, r.CumulativePressure, sum)
		}
	}
}

func TestSummaryRatios(t *testing.T) {
	bars := mkBars(
		[]float64{10, 11, 9, 9},
		[]float64{100, 100, 100, 100},
	)
	recs, _ := Analyze(bars)
	s := Summarize(bars, recs)
	if s.TotalVolume != 400 {
		t.Fatalf("total volume = %v, want 400", s.TotalVolume)
	}
	if s.BuyRatioPct != 25 || s.SellRatioPct != 25 {
		t.Fatalf("ratios = %v/%v, want 25/25", s.BuyRatioPct, s.SellRatioPct)
	}
	if s.NetBiasPct != 0 {
		t.Fatalf("net bias = %v, want 0", s.NetBiasPct)
	}
}
