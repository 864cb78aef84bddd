package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type PressureRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=2,lte=10000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h"`
}

type IndicatorsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	N         int    `query:"n" json:"n" default:"600" validate:"gte=2,lte=10000"`
	TF        string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h"`
	SMAWindow int    `query:"sma" json:"sma" default:"20" validate:"gte=2,lte=500"`
	EMASpan   int    `query:"ema" json:"ema" default:"20" validate:"gte=2,lte=500"`
	RSIWindow int    `query:"rsi" json:"rsi" default:"14" validate:"gte=2,lte=500"`
}

type AnomalyRequest struct {
	Symbol     string  `query:"symbol" json:"symbol" validate:"required"`
	N          int     `query:"n" json:"n" default:"1200" validate:"gte=2,lte=20000"`
	TF         string  `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h"`
	Window     int     `query:"window" json:"window" default:"20" validate:"gte=2,lte=500"`
	Multiplier float64 `query:"multiplier" json:"multiplier" default:"2" validate:"gt=0"`
}

type ForecastRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	N        int    `query:"n" json:"n" default:"2000" validate:"gte=10,lte=50000"`
	TF       string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 1h"`
	Lags     int    `query:"lags" json:"lags" default:"3" validate:"gte=1,lte=10"`
	Strategy string `query:"strategy" json:"strategy" default:"ensemble-trees" validate:"oneof=ensemble-trees sequence-model"`
	// Boundary is the train/holdout cut as RFC3339 or unix seconds. When empty
	// the boundary is derived from HoldoutFrac.
	Boundary    string  `query:"boundary" json:"boundary"`
	HoldoutFrac float64 `query:"holdout_frac" json:"holdout_frac" default:"0.2" validate:"gt=0,lt=1"`
	Export      bool    `query:"export" json:"export"`
	// Async queues the run in the background instead of fitting inline.
	Async bool `query:"async" json:"async"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 1h"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
