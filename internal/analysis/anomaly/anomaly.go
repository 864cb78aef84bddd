// Package anomaly flags bars whose volume spikes above a trailing
// rolling-average baseline. This is a plain threshold classifier, not a
// statistical test: volume > multiplier * baseline flags the bar, and an
// undefined baseline (window not yet full) never flags.
package anomaly

import (
	"math"

	"FlowCast/internal/analysis"
	"FlowCast/internal/analysis/indicators"
	"FlowCast/internal/domain/models"
)

const (
	DefaultWindow     = 20
	DefaultMultiplier = 2.0
)

// Detect computes the rolling-average volume baseline and flags spikes.
// Output is index-aligned with the input bars; the first window-1 positions
// carry a NaN baseline and are never flagged.
func Detect(bars []models.Bar, window int, multiplier float64) ([]models.VolumeAnomaly, error) {
	if len(bars) == 0 {
		return nil, analysis.ErrEmptyInput
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}

	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	baseline := indicators.SMA(volumes, window)

	out := make([]models.VolumeAnomaly, len(bars))
	for i, b := range bars {
		out[i] = models.VolumeAnomaly{
			Timestamp: b.Timestamp,
			Volume:    b.Volume,
			Baseline:  baseline[i],
			Flagged:   !math.IsNaN(baseline[i]) && b.Volume > multiplier*baseline[i],
		}
	}
	return out, nil
}
