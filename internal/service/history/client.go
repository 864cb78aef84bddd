package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
	xhttp "FlowCast/pkg/http"
	applogger "FlowCast/pkg/logger"
)

// Client backfills historical bars over the exchange REST API. The stream
// only delivers bars from connect time onward; analysis windows need history
// behind that, which this fetches in pages and hands to storage.
type Client struct {
	baseURL string
	client  *xhttp.Client
	l       *applogger.Logger
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// FetchBars loads up to limit bars for one symbol/interval window.
// Kline rows come back as arrays: [openTime, open, high, low, close, volume, ...].
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time, limit int) ([]models.Bar, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("history client not configured")
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	var rows [][]interface{}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":    {symbol},
			"interval":  {interval},
			"startTime": {strconv.FormatInt(from.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(to.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		bar, err := barFromRow(symbol, row)
		if err != nil {
			if c.l != nil {
				c.l.Warn("history: skip malformed kline row",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// Backfill pages through the window and stores every fetched bar.
func (c *Client) Backfill(ctx context.Context, storage domrepo.Storage, symbols []string, interval string, from, to time.Time) error {
	step, err := intervalDuration(interval)
	if err != nil {
		return err
	}
	const pageSize = 1000

	for _, symbol := range symbols {
		cursor := from
		for cursor.Before(to) {
			bars, err := c.FetchBars(ctx, symbol, interval, cursor, to, pageSize)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				break
			}
			ptrs := make([]*models.Bar, len(bars))
			for i := range bars {
				ptrs[i] = &bars[i]
			}
			if err := storage.StoreBatch(ctx, ptrs); err != nil {
				return fmt.Errorf("backfill store %s: %w", symbol, err)
			}
			if c.l != nil {
				c.l.Info("history: backfilled page",
					applogger.String("symbol", symbol),
					applogger.Int("bars", len(bars)),
				)
			}
			cursor = bars[len(bars)-1].Timestamp.Add(step)
		}
	}
	return nil
}

func barFromRow(symbol string, row []interface{}) (models.Bar, error) {
	if len(row) < 6 {
		return models.Bar{}, fmt.Errorf("kline row too short: %d fields", len(row))
	}
	openMs, ok := row[0].(float64)
	if !ok {
		return models.Bar{}, fmt.Errorf("kline open time not numeric")
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return models.Bar{}, fmt.Errorf("kline field %d not a string", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		vals[i-1] = v
	}
	return models.Bar{
		Timestamp: time.UnixMilli(int64(openMs)).UTC(),
		Symbol:    symbol,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

func intervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval: %s", interval)
	}
}
