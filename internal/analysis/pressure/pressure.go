// Package pressure converts a bar sequence into per-bar buy/sell pressure.
// Volume is attributed to the buy side when the close rose against the
// previous bar, to the sell side when it fell. A zero price change leaves the
// bar's volume on neither side; that volume is deliberately dropped from the
// buy+sell total rather than redistributed.
package pressure

import (
	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
)

// Analyze computes one PressureRecord per input bar, index-aligned with the
// input. The first bar has no previous close to diff against and is treated
// as flat.
func Analyze(bars []models.Bar) ([]models.PressureRecord, error) {
	if len(bars) == 0 {
		return nil, analysis.ErrEmptyInput
	}

	out := make([]models.PressureRecord, len(bars))
	cumulative := 0.0
	for i, b := range bars {
		rec := models.PressureRecord{Timestamp: b.Timestamp}
		if i > 0 {
			change := b.Close - bars[i-1].Close
			switch {
			case change > 0:
				rec.BuyVolume = b.Volume
			case change < 0:
				rec.SellVolume = b.Volume
			}
		}
		rec.NetPressure = rec.BuyVolume - rec.SellVolume
		cumulative += rec.NetPressure
		rec.CumulativePressure = cumulative
		if total := rec.BuyVolume + rec.SellVolume; total > 0 {
			rec.Imbalance = rec.NetPressure / total
		}
		out[i] = rec
	}
	return out, nil
}

// Summarize aggregates pressure ratios over the whole window. Ratios are
// expressed against total traded volume, so flat bars dilute both sides.
func Summarize(bars []models.Bar, records []models.PressureRecord) models.PressureSummary {
	var s models.PressureSummary
	for _, b := range bars {
		s.TotalVolume += b.Volume
	}
	for _, r := range records {
		s.BuyVolume += r.BuyVolume
		s.SellVolume += r.SellVolume
	}
	if s.TotalVolume > 0 {
		s.BuyRatioPct = s.BuyVolume / s.TotalVolume * 100
		s.SellRatioPct = s.SellVolume / s.TotalVolume * 100
		s.NetBiasPct = s.BuyRatioPct - s.SellRatioPct
	}
	return s
}
