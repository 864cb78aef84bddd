// Package indicators computes classical technical indicators over close and
// volume history. Every indicator is a pure function of its input sequence.
// Rolling windows are maintained with running accumulators and the EMA family
// with the single-previous-value recursion, so each series is produced in one
// pass; output is numerically identical to recomputing every window in full.
//
// Positions without enough history carry NaN, not zero: a zero SMA is a valid
// price, a NaN is "no value yet".
package indicators

import (
	"math"

	"FlowCast/internal/analysis"
	"FlowCast/internal/domain/models"
)

// Params holds indicator window spans. The EMA recursion follows the
// adjust=false convention: EMA[0] = x[0], EMA[i] = alpha*x[i] + (1-alpha)*EMA[i-1]
// with alpha = 2/(span+1). MACD and the lag math depend on that convention.
type Params struct {
	SMAWindow  int
	EMASpan    int
	RSIWindow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultParams returns the conventional 20/20/14/12/26/9 spans.
func DefaultParams() Params {
	return Params{
		SMAWindow:  20,
		EMASpan:    20,
		RSIWindow:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// SMA computes the trailing arithmetic mean over window w using a rolling
// sum. The first w-1 positions are NaN.
func SMA(xs []float64, w int) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= w {
			sum -= xs[i-w]
		}
		if i >= w-1 {
			out[i] = sum / float64(w)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA computes the recursive exponential moving average with span s.
// Defined from the first element, no warm-up gap.
func EMA(xs []float64, s int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	alpha := 2.0 / float64(s+1)
	prev := xs[0]
	out[0] = prev
	for i := 1; i < len(xs); i++ {
		prev = alpha*xs[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RSI computes the relative strength index over window n from trailing-n
// simple means of gains and losses. The first n positions are NaN. A window
// with no losses is defined as 100 rather than dividing by zero.
func RSI(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	gainSum, lossSum := 0.0, 0.0
	for i := range closes {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		change := closes[i] - closes[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
		// retire the change leaving the window
		if i > n {
			old := closes[i-n] - closes[i-n-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum += old
			}
		}
		if i < n {
			out[i] = math.NaN()
			continue
		}
		if lossSum == 0 {
			out[i] = 100
			continue
		}
		rs := (gainSum / float64(n)) / (lossSum / float64(n))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD series), all using the same recursive convention.
func MACD(closes []float64, fast, slow, signal int) (line, sig []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	return line, sig
}

// Compute produces one IndicatorRecord per bar, index-aligned with the input.
func Compute(bars []models.Bar, p Params) ([]models.IndicatorRecord, error) {
	if len(bars) == 0 {
		return nil, analysis.ErrEmptyInput
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma := SMA(closes, p.SMAWindow)
	ema := EMA(closes, p.EMASpan)
	rsi := RSI(closes, p.RSIWindow)
	macd, signal := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)

	out := make([]models.IndicatorRecord, len(bars))
	for i, b := range bars {
		out[i] = models.IndicatorRecord{
			Timestamp: b.Timestamp,
			SMA:       sma[i],
			EMA:       ema[i],
			RSI:       rsi[i],
			MACD:      macd[i],
			Signal:    signal[i],
		}
	}
	return out, nil
}
