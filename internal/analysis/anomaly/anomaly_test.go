package anomaly

import (
	"math"
	"testing"
	"time"

	"FlowCast/internal/domain/models"
)

func volBars(volumes []float64) []models.Bar {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(volumes))
	for i, v := range volumes {
		bars[i] = models.Bar{Timestamp: base.Add(time.Duration(i) * time.Minute), Close: 100, Volume: v}
	}
	return bars
}

func TestNoFlagsBeforeBaselineDefined(t *testing.T) {
	volumes := make([]float64, 19)
	for i := range volumes {
		volumes[i] = 1e9 // enormous, but baseline window never fills
	}
	flags, err := Detect(volBars(volumes), 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, f := range flags {
		if f.Flagged {
			t.Fatalf("bar %d flagged with undefined baseline", i)
		}
		if !math.IsNaN(f.Baseline) {
			t.Fatalf("bar %d baseline = %v, want NaN", i, f.Baseline)
		}
	}
}

func TestSpikeFlagged(t *testing.T) {
	volumes := make([]float64, 25)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[22] = 500 // well above 2x the ~100 baseline
	flags, err := Detect(volBars(volumes), 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flags[22].Flagged {
		t.Fatalf("spike at bar 22 not flagged, baseline %v", flags[22].Baseline)
	}
	for i, f := range flags {
		if i != 22 && f.Flagged {
			t.Fatalf("bar %d flagged unexpectedly", i)
		}
	}
}

func TestThresholdIsStrict(t *testing.T) {
	volumes := make([]float64, 21)
	for i := range volumes {
		volumes[i] = 100
	}
	flags, err := Detect(volBars(volumes), 20, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// volume equals 1x baseline exactly: strict > must not flag
	last := flags[len(flags)-1]
	if last.Flagged {
		t.Fatalf("flagged at exactly the threshold, want strict exceedance")
	}
}

func TestDetectEmptyInput(t *testing.T) {
	if _, err := Detect(nil, 20, 2); err == nil {
		t.Fatalf("expected error on empty input")
	}
}
