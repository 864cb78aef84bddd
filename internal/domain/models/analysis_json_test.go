package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestIndicatorRecordMarshalsWarmupAsNull(t *testing.T) {
	nan := math.NaN()
	recs := []IndicatorRecord{
		{Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), SMA: nan, EMA: 100.5, RSI: nan, MACD: nan, Signal: nan},
		{Timestamp: time.Date(2024, 6, 1, 0, 1, 0, 0, time.UTC), SMA: 101.2, EMA: 100.9, RSI: 55.1, MACD: 0.3, Signal: 0.1},
	}
	b, err := json.Marshal(recs)
	if err != nil {
		t.Fatalf("marshal warm-up records: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"sma":null`) || !strings.Contains(s, `"rsi":null`) {
		t.Fatalf("warm-up values not rendered as null: %s", s)
	}
	if !strings.Contains(s, `"sma":101.2`) || !strings.Contains(s, `"ema":100.5`) {
		t.Fatalf("defined values mangled: %s", s)
	}
}

func TestVolumeAnomalyMarshalsWarmupBaselineAsNull(t *testing.T) {
	b, err := json.Marshal(VolumeAnomaly{
		Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Volume:    1500,
		Baseline:  math.NaN(),
	})
	if err != nil {
		t.Fatalf("marshal warm-up anomaly: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"baseline":null`) {
		t.Fatalf("warm-up baseline not rendered as null: %s", s)
	}
	if !strings.Contains(s, `"volume":1500`) || !strings.Contains(s, `"flagged":false`) {
		t.Fatalf("unexpected payload: %s", s)
	}
}
