package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
	"FlowCast/internal/domain/service"
)

func vectors(n int) []models.FeatureVector {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.FeatureVector, n)
	for i := range out {
		out[i] = models.FeatureVector{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Features:  []float64{float64(i), float64(2 * i), float64(3 * i)},
			Label:     float64(100 + i),
		}
	}
	return out
}

func TestSplitIsChronological(t *testing.T) {
	vs := vectors(10)
	split, err := Split(vs, vs[6].Timestamp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(split.Train) != 7 || len(split.Holdout) != 3 {
		t.Fatalf("split %d/%d, want 7/3", len(split.Train), len(split.Holdout))
	}
	maxTrain := split.Train[len(split.Train)-1].Timestamp
	minHoldout := split.Holdout[0].Timestamp
	if !maxTrain.Before(minHoldout) {
		t.Fatalf("train reaches %v, holdout starts %v", maxTrain, minHoldout)
	}
}

func TestSplitEmptySides(t *testing.T) {
	vs := vectors(5)

	before := vs[0].Timestamp.Add(-time.Hour)
	if _, err := Split(vs, before); !errors.Is(err, analysis.ErrEmptySplit) {
		t.Fatalf("boundary before history: got %v, want ErrEmptySplit", err)
	}
	if _, err := Split(vs, vs[4].Timestamp); !errors.Is(err, analysis.ErrEmptySplit) {
		t.Fatalf("boundary at last bar: got %v, want ErrEmptySplit", err)
	}
	if _, err := Split(nil, before); !errors.Is(err, analysis.ErrEmptyInput) {
		t.Fatalf("empty input: got %v, want ErrEmptyInput", err)
	}
}

func TestBoundaryFromFraction(t *testing.T) {
	vs := vectors(10)
	boundary, err := BoundaryFromFraction(vs, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	split, err := Split(vs, boundary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(split.Train) != 8 || len(split.Holdout) != 2 {
		t.Fatalf("split %d/%d, want 8/2", len(split.Train), len(split.Holdout))
	}

	if _, err := BoundaryFromFraction(vs[:1], 0.2); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("single row: got %v, want ErrInsufficientData", err)
	}
}

func TestRMSE(t *testing.T) {
	perfect := []models.PredictionPoint{
		{Actual: 10, Predicted: 10},
		{Actual: 20, Predicted: 20},
	}
	if got := RMSE(perfect); got != 0 {
		t.Fatalf("rmse of perfect predictions = %v, want 0", got)
	}

	off := []models.PredictionPoint{
		{Actual: 10, Predicted: 13},
		{Actual: 10, Predicted: 6},
	}
	want := math.Sqrt((9.0 + 16.0) / 2.0)
	if got := RMSE(off); math.Abs(got-want) > 1e-12 {
		t.Fatalf("rmse = %v, want %v", got, want)
	}

	if !math.IsNaN(RMSE(nil)) {
		t.Fatalf("rmse of no points should be NaN")
	}
}

// fixed stub so Evaluate's plumbing is testable without model noise
type constantRegressor struct{ v float64 }

func (c *constantRegressor) Fit(x [][]float64, y []float64) error { return nil }
func (c *constantRegressor) Predict(features []float64) float64   { return c.v }

func TestEvaluateAlignsHoldout(t *testing.T) {
	vs := vectors(10)
	split, err := Split(vs, vs[7].Timestamp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	points, rmse, err := Evaluate(&constantRegressor{v: 108}, split)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != len(split.Holdout) {
		t.Fatalf("got %d points, want %d", len(points), len(split.Holdout))
	}
	for i, p := range points {
		if !p.Timestamp.Equal(split.Holdout[i].Timestamp) {
			t.Fatalf("point %d timestamp misaligned", i)
		}
		if p.Actual != split.Holdout[i].Label {
			t.Fatalf("point %d actual %v, want %v", i, p.Actual, split.Holdout[i].Label)
		}
	}
	// holdout labels are 108 and 109; constant 108 gives sqrt((0+1)/2)
	want := math.Sqrt(0.5)
	if math.Abs(rmse-want) > 1e-12 {
		t.Fatalf("rmse = %v, want %v", rmse, want)
	}
}

func TestNewRegressorStrategies(t *testing.T) {
	if _, err := NewRegressor(service.StrategyEnsembleTrees, ForestConfig{}, SequenceConfig{}); err != nil {
		t.Fatalf("ensemble-trees: %v", err)
	}
	if _, err := NewRegressor(service.StrategySequenceModel, ForestConfig{}, SequenceConfig{}); err != nil {
		t.Fatalf("sequence-model: %v", err)
	}
	if _, err := NewRegressor("gradient-boost", ForestConfig{}, SequenceConfig{}); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
