package models

import "time"

// Bar represents one OHLCV observation for a symbol at a point in time.
// Bars are immutable inputs: analysis stages never mutate them.
type Bar struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
