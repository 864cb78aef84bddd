// Package forecast fits a regression backend on lagged feature vectors and
// evaluates it on a strictly-later holdout window. Both backends satisfy the
// same fit/predict contract, so callers select one by name and never touch
// model internals.
package forecast

import (
	"fmt"
	"math"
	"time"

	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
	"FlowCast/internal/domain/service"
)

// DefaultHoldoutFraction is used when no explicit boundary is supplied.
const DefaultHoldoutFraction = 0.2

// Split partitions vectors chronologically: rows at or before the boundary
// train the model, rows after it form the holdout. Either side being empty is
// an error since nothing could be fitted or evaluated.
func Split(vectors []models.FeatureVector, boundary time.Time) (models.FeatureSplit, error) {
	if len(vectors) == 0 {
		return models.FeatureSplit{}, analysis.ErrEmptyInput
	}
	cut := len(vectors)
	for i, v := range vectors {
		if v.Timestamp.After(boundary) {
			cut = i
			break
		}
	}
	if cut == 0 || cut == len(vectors) {
		return models.FeatureSplit{}, fmt.Errorf("boundary %s: %w", boundary.Format(time.RFC3339), analysis.ErrEmptySplit)
	}
	return models.FeatureSplit{Train: vectors[:cut], Holdout: vectors[cut:]}, nil
}

// BoundaryFromFraction derives a split boundary that leaves roughly the given
// fraction of rows in the holdout. Fractions outside (0,1) fall back to the
// default.
func BoundaryFromFraction(vectors []models.FeatureVector, holdoutFrac float64) (time.Time, error) {
	if len(vectors) < 2 {
		return time.Time{}, analysis.ErrInsufficientData
	}
	if holdoutFrac <= 0 || holdoutFrac >= 1 {
		holdoutFrac = DefaultHoldoutFraction
	}
	cut := int(float64(len(vectors)) * (1 - holdoutFrac))
	if cut < 1 {
		cut = 1
	}
	if cut >= len(vectors) {
		cut = len(vectors) - 1
	}
	return vectors[cut-1].Timestamp, nil
}

// NewRegressor builds the backend named by strategy.
func NewRegressor(strategy service.Strategy, forestCfg ForestConfig, seqCfg SequenceConfig) (service.Regressor, error) {
	switch strategy {
	case service.StrategyEnsembleTrees:
		return NewForest(forestCfg), nil
	case service.StrategySequenceModel:
		return NewSequenceModel(seqCfg), nil
	default:
		return nil, fmt.Errorf("unknown forecast strategy %q", strategy)
	}
}

// Evaluate fits the regressor on the train side and scores every holdout row.
func Evaluate(reg service.Regressor, split models.FeatureSplit) ([]models.PredictionPoint, float64, error) {
	x := make([][]float64, len(split.Train))
	y := make([]float64, len(split.Train))
	for i, v := range split.Train {
		x[i] = v.Features
		y[i] = v.Label
	}
	if err := reg.Fit(x, y); err != nil {
		return nil, 0, fmt.Errorf("fit: %w", err)
	}

	points := make([]models.PredictionPoint, len(split.Holdout))
	for i, v := range split.Holdout {
		points[i] = models.PredictionPoint{
			Timestamp: v.Timestamp,
			Actual:    v.Label,
			Predicted: reg.Predict(v.Features),
		}
	}
	return points, RMSE(points), nil
}

// RMSE is the root mean squared error over prediction points; NaN when empty.
func RMSE(points []models.PredictionPoint) float64 {
	if len(points) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, p := range points {
		d := p.Predicted - p.Actual
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(points)))
}
