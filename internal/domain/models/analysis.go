package models

import (
	"encoding/json"
	"math"
	"time"
)

// PressureRecord attributes a bar's volume to buy or sell pressure based on
// the close-to-close price change. Index-aligned with the input bar sequence.
type PressureRecord struct {
	Timestamp          time.Time `json:"ts"`
	BuyVolume          float64   `json:"buy_volume"`
	SellVolume         float64   `json:"sell_volume"`
	NetPressure        float64   `json:"net_pressure"`
	CumulativePressure float64   `json:"cumulative_pressure"`
	Imbalance          float64   `json:"imbalance"` // net / (buy+sell), 0 when denominator is 0
}

// PressureSummary aggregates pressure over a whole bar window.
type PressureSummary struct {
	TotalVolume  float64 `json:"total_volume"`
	BuyVolume    float64 `json:"buy_volume"`
	SellVolume   float64 `json:"sell_volume"`
	BuyRatioPct  float64 `json:"buy_ratio_pct"`
	SellRatioPct float64 `json:"sell_ratio_pct"`
	NetBiasPct   float64 `json:"net_bias_pct"`
}

// IndicatorRecord carries per-bar technical indicator values.
// A value is NaN while its window has not accumulated enough history;
// the JSON layer renders those as null.
type IndicatorRecord struct {
	Timestamp time.Time `json:"ts"`
	SMA       float64   `json:"sma"`
	EMA       float64   `json:"ema"`
	RSI       float64   `json:"rsi"`
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
}

// nanNull maps a NaN warm-up value to nil so it encodes as JSON null.
// encoding/json has no representation for NaN and would otherwise fail
// the whole response.
func nanNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func (r IndicatorRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp time.Time `json:"ts"`
		SMA       *float64  `json:"sma"`
		EMA       *float64  `json:"ema"`
		RSI       *float64  `json:"rsi"`
		MACD      *float64  `json:"macd"`
		Signal    *float64  `json:"signal"`
	}{r.Timestamp, nanNull(r.SMA), nanNull(r.EMA), nanNull(r.RSI), nanNull(r.MACD), nanNull(r.Signal)})
}

// VolumeAnomaly flags a bar whose volume exceeds a multiple of the trailing
// rolling-average baseline. Baseline is NaN until the window is full, and an
// undefined baseline never flags.
type VolumeAnomaly struct {
	Timestamp time.Time `json:"ts"`
	Volume    float64   `json:"volume"`
	Baseline  float64   `json:"baseline"`
	Flagged   bool      `json:"flagged"`
}

func (a VolumeAnomaly) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp time.Time `json:"ts"`
		Volume    float64   `json:"volume"`
		Baseline  *float64  `json:"baseline"`
		Flagged   bool      `json:"flagged"`
	}{a.Timestamp, a.Volume, nanNull(a.Baseline), a.Flagged})
}

// FeatureVector is one training row: lagged buy/sell volume and close values
// as predictors, the current close as label. Features never reference the
// vector's own bar or anything after it.
type FeatureVector struct {
	Timestamp time.Time
	Features  []float64
	Label     float64
}

// FeatureSplit is a chronological train/holdout partition of feature vectors.
type FeatureSplit struct {
	Train   []FeatureVector
	Holdout []FeatureVector
}

// PredictionPoint pairs the actual and predicted close for one holdout bar.
type PredictionPoint struct {
	Timestamp time.Time `json:"ts"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

// AnalysisReport bundles the independent analysis stages for one symbol.
// Stages that failed carry their error message instead of data.
type AnalysisReport struct {
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"tf"`
	Timestamp  time.Time         `json:"ts"`
	Pressure   []PressureRecord  `json:"pressure,omitempty"`
	Summary    *PressureSummary  `json:"summary,omitempty"`
	Indicators []IndicatorRecord `json:"indicators,omitempty"`
	Anomalies  []VolumeAnomaly   `json:"anomalies,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// ForecastResult is the holdout evaluation of a fitted model.
type ForecastResult struct {
	Symbol      string            `json:"symbol"`
	Strategy    string            `json:"strategy"`
	LagDepth    int               `json:"lag_depth"`
	Boundary    time.Time         `json:"boundary"`
	TrainRows   int               `json:"train_rows"`
	HoldoutRows int               `json:"holdout_rows"`
	RMSE        float64           `json:"rmse"`
	Predictions []PredictionPoint `json:"predictions"`
}
