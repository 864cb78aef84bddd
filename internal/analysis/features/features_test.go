package features

import (
	"errors"
	"testing"
	"time"

	"FlowCast/internal/analysis"
	"FlowCast/internal/analysis/pressure"
	"FlowCast/internal/domain/models"
)

func seriesBars(n int) []models.Bar {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		// closes alternate up/down so both pressure sides are populated
		c := 100.0 + float64(i%2)*3 - float64(i%3)
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Close:     c,
			Volume:    float64(10 * (i + 1)),
		}
	}
	return bars
}

func TestBuildDropsWarmup(t *testing.T) {
	bars := seriesBars(10)
	recs, _ := pressure.Analyze(bars)
	for _, lags := range []int{1, 3, 5} {
		fvs, err := Build(recs, bars, lags)
		if err != nil {
			t.Fatalf("lags %d: unexpected error: %v", lags, err)
		}
		if len(fvs) != len(bars)-lags {
			t.Fatalf("lags %d: got %d vectors, want %d", lags, len(fvs), len(bars)-lags)
		}
		if !fvs[0].Timestamp.Equal(bars[lags].Timestamp) {
			t.Fatalf("lags %d: first vector at wrong bar", lags)
		}
	}
}

func TestBuildLayoutAndLabel(t *testing.T) {
	bars := seriesBars(8)
	recs, _ := pressure.Analyze(bars)
	lags := 3
	fvs, err := Build(recs, bars, lags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for vi, fv := range fvs {
		i := vi + lags
		if fv.Label != bars[i].Close {
			t.Fatalf("vector %d: label %v, want close %v", vi, fv.Label, bars[i].Close)
		}
		if len(fv.Features) != 3*lags {
			t.Fatalf("vector %d: %d features, want %d", vi, len(fv.Features), 3*lags)
		}
		for k := 1; k <= lags; k++ {
			if fv.Features[k-1] != recs[i-k].BuyVolume {
				t.Fatalf("vector %d: buy lag %d mismatch", vi, k)
			}
			if fv.Features[lags+k-1] != recs[i-k].SellVolume {
				t.Fatalf("vector %d: sell lag %d mismatch", vi, k)
			}
			if fv.Features[2*lags+k-1] != bars[i-k].Close {
				t.Fatalf("vector %d: close lag %d mismatch", vi, k)
			}
		}
	}
}

// No feature may depend on the vector's own bar: perturbing bar i must leave
// vector i's features untouched for any lag depth.
func TestNoLookAhead(t *testing.T) {
	for _, lags := range []int{1, 2, 4} {
		bars := seriesBars(12)
		recs, _ := pressure.Analyze(bars)
		before, err := Build(recs, bars, lags)
		if err != nil {
			t.Fatalf("lags %d: unexpected error: %v", lags, err)
		}

		for vi := range before {
			i := vi + lags
			mutated := seriesBars(12)
			for j := i; j < len(mutated); j++ {
				mutated[j].Close += 1e6
				mutated[j].Volume += 1e6
			}
			// pressure at bars before i is unchanged by the mutation
			mrecs, _ := pressure.Analyze(mutated)
			after, err := Build(mrecs, mutated, lags)
			if err != nil {
				t.Fatalf("lags %d: unexpected error: %v", lags, err)
			}
			for fi := range before[vi].Features {
				if before[vi].Features[fi] != after[vi].Features[fi] {
					t.Fatalf("lags %d vector %d: feature %d depends on bar >= its own index", lags, vi, fi)
				}
			}
		}
	}
}

func TestBuildErrors(t *testing.T) {
	bars := seriesBars(3)
	recs, _ := pressure.Analyze(bars)

	if _, err := Build(nil, nil, 3); !errors.Is(err, analysis.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Build(recs, bars, 0); err == nil {
		t.Fatalf("expected error for lag depth 0")
	}
	if _, err := Build(recs, bars, 3); !errors.Is(err, analysis.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if _, err := Build(recs[:2], bars, 1); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}
