package service

// Strategy selects the regression backend used by the forecaster.
type Strategy string

const (
	StrategyEnsembleTrees Strategy = "ensemble-trees"
	StrategySequenceModel Strategy = "sequence-model"
)

// IsValidStrategy returns true if s names a known regression backend.
func IsValidStrategy(s Strategy) bool {
	return s == StrategyEnsembleTrees || s == StrategySequenceModel
}

// Regressor is the uniform fit/predict contract both forecaster backends
// satisfy. Fit consumes a feature matrix and a label vector; Predict scores
// a single feature row.
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(features []float64) float64
}
