package forecast

import (
	"errors"
	"math"
	"testing"

	"FlowCast/internal/analysis"
)

func TestForestLearnsConstant(t *testing.T) {
	x := make([][]float64, 50)
	y := make([]float64, 50)
	for i := range x {
		x[i] = []float64{float64(i), float64(i % 7)}
		y[i] = 42.5
	}
	f := NewForest(ForestConfig{Trees: 10, Seed: 1})
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if got := f.Predict([]float64{25, 3}); got != 42.5 {
		t.Fatalf("constant target predicted as %v", got)
	}
}

func TestForestLearnsIdentity(t *testing.T) {
	x := make([][]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		x[i] = []float64{float64(i), float64(i % 13), float64(200 - i)}
		y[i] = float64(i)
	}
	f := NewForest(ForestConfig{Trees: 50, Seed: 7})
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, probe := range []float64{30.5, 99.5, 170.5} {
		got := f.Predict([]float64{probe, 5, 200 - probe})
		if math.Abs(got-probe) > 10 {
			t.Fatalf("predict(%v) = %v, want within 10", probe, got)
		}
	}
}

func TestForestDeterministicForSeed(t *testing.T) {
	x := make([][]float64, 80)
	y := make([]float64, 80)
	for i := range x {
		x[i] = []float64{float64(i * 3 % 17), float64(i)}
		y[i] = float64(i)*1.5 + float64(i%5)
	}

	predict := func(seed int64) []float64 {
		f := NewForest(ForestConfig{Trees: 20, Seed: seed})
		if err := f.Fit(x, y); err != nil {
			t.Fatalf("fit: %v", err)
		}
		out := make([]float64, len(x))
		for i := range x {
			out[i] = f.Predict(x[i])
		}
		return out
	}

	a, b := predict(42), predict(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at row %d: %v vs %v", i, a[i], b[i])
		}
	}

	c := predict(43)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical ensembles")
	}
}

func TestForestFitErrors(t *testing.T) {
	f := NewForest(ForestConfig{})
	if err := f.Fit(nil, nil); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("empty fit: got %v, want ErrInsufficientData", err)
	}
	if err := f.Fit([][]float64{{1}}, []float64{1, 2}); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("mismatched fit: got %v, want ErrInsufficientData", err)
	}
	if err := f.Fit([][]float64{{1, 2}}, []float64{100}); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("single-row fit: got %v, want ErrInsufficientData", err)
	}
}
