// Package features assembles fixed-length lagged feature vectors from
// pressure and price history. The first lag-depth bars cannot form a full
// window and are dropped rather than zero-filled, so no fabricated history
// enters the training set.
package features

import (
	"fmt"

	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
)

// DefaultLagDepth matches the original pipeline's three lag steps.
const DefaultLagDepth = 3

// Build creates one FeatureVector per bar at index >= lags. For index i the
// features are [buy[i-1..i-L], sell[i-1..i-L], close[i-1..i-L]] and the label
// is close[i]: nothing at or after index i is ever referenced as a feature.
func Build(pressure []models.PressureRecord, bars []models.Bar, lags int) ([]models.FeatureVector, error) {
	if len(bars) == 0 {
		return nil, analysis.ErrEmptyInput
	}
	if len(pressure) != len(bars) {
		return nil, fmt.Errorf("features: pressure/bar length mismatch %d != %d", len(pressure), len(bars))
	}
	if lags < 1 {
		return nil, fmt.Errorf("features: lag depth %d, need >= 1", lags)
	}
	if len(bars) <= lags {
		return nil, analysis.ErrInsufficientHistory
	}

	out := make([]models.FeatureVector, 0, len(bars)-lags)
	for i := lags; i < len(bars); i++ {
		fv := models.FeatureVector{
			Timestamp: bars[i].Timestamp,
			Features:  make([]float64, 0, 3*lags),
			Label:     bars[i].Close,
		}
		for k := 1; k <= lags; k++ {
			fv.Features = append(fv.Features, pressure[i-k].BuyVolume)
		}
		for k := 1; k <= lags; k++ {
			fv.Features = append(fv.Features, pressure[i-k].SellVolume)
		}
		for k := 1; k <= lags; k++ {
			fv.Features = append(fv.Features, bars[i-k].Close)
		}
		out = append(out, fv)
	}
	return out, nil
}
