package forecast

import (
	"errors"
	"math"
	"testing"

	"FlowCast/internal/analysis"
)

// lag-major row for 3 lags: [buy x3, sell x3, close x3]
func seqRow(buy, sell, close float64) []float64 {
	return []float64{buy, buy, buy, sell, sell, sell, close, close, close}
}

func TestSequenceFitsConstantSeries(t *testing.T) {
	x := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = seqRow(100+float64(i%3), 90+float64(i%2), 50)
		y[i] = 120
	}
	m := NewSequenceModel(SequenceConfig{Lags: 3, Hidden: 8, Epochs: 200, LearningRate: 0.05, Seed: 42})
	if err := m.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	got := m.Predict(seqRow(101, 90, 50))
	if math.Abs(got-120) > 1 {
		t.Fatalf("constant target predicted as %v, want ~120", got)
	}
}

func TestSequenceDeterministicForSeed(t *testing.T) {
	x := make([][]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = seqRow(float64(i), float64(30-i), 100+math.Sin(float64(i)))
		y[i] = 100 + math.Sin(float64(i+1))
	}

	predict := func() float64 {
		m := NewSequenceModel(SequenceConfig{Lags: 3, Seed: 42, Epochs: 50})
		if err := m.Fit(x, y); err != nil {
			t.Fatalf("fit: %v", err)
		}
		return m.Predict(x[10])
	}
	if a, b := predict(), predict(); a != b {
		t.Fatalf("same seed diverged: %v vs %v", a, b)
	}
}

func TestSequencePredictionsFinite(t *testing.T) {
	x := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = seqRow(float64(i*i%97), float64(i*7%53), 100+float64(i%11))
		y[i] = 100 + float64((i+1)%11)
	}
	m := NewSequenceModel(SequenceConfig{})
	if err := m.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i := range x {
		if v := m.Predict(x[i]); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("prediction %d not finite: %v", i, v)
		}
	}
}

func TestSequenceFitErrors(t *testing.T) {
	m := NewSequenceModel(SequenceConfig{Lags: 3})
	if err := m.Fit(nil, nil); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("empty fit: got %v, want ErrInsufficientData", err)
	}
	if err := m.Fit([][]float64{seqRow(1, 2, 3)}, []float64{100}); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("single-row fit: got %v, want ErrInsufficientData", err)
	}
	// row width must be 3 features per lag step
	if err := m.Fit([][]float64{{1, 2}, {3, 4}}, []float64{1, 2}); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("narrow row: got %v, want ErrInsufficientData", err)
	}
}

func TestScalerRoundTrip(t *testing.T) {
	y := []float64{1, 100, -5, 42, 0.5}
	s := fitScaler1D(y)
	for _, v := range y {
		if back := s.inverse1D(s.transform1D(v)); math.Abs(back-v) > 1e-12 {
			t.Fatalf("round trip: %v -> %v", v, back)
		}
	}
	// constant column must transform to 0 and invert exactly
	x := [][]float64{{1, -5}, {2, -5}, {3, -5}}
	sc := fitScaler(x)
	if got := sc.transform([]float64{2, -5})[1]; got != 0 {
		t.Fatalf("constant column scaled to %v, want 0", got)
	}
	if back := sc.transform1D(sc.inverse1D(0)); back != 0 {
		t.Fatalf("1d round trip at mean: got %v, want 0", back)
	}
}
