package dataflows

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
)

// YahooClient fetches historical series and spot quotes from Yahoo
// Finance. It is the primary public-data source and the first
// quote-only fallback.
type YahooClient struct {
	timeout time.Duration
}

func NewYahooClient() *YahooClient {
	return &YahooClient{timeout: 10 * time.Second}
}

// chartInterval maps the client-facing interval strings onto the
// values the Yahoo chart API accepts. "1h" is normalized to "60m".
func chartInterval(interval string) datetime.Interval {
	switch interval {
	case "", "1h":
		return datetime.Interval("60m")
	case "1d":
		return datetime.OneDay
	default:
		return datetime.Interval(interval)
	}
}

// History returns the candle series for symbol over the given period
// and interval, oldest first. The fetch is bounded by a fixed timeout;
// an empty series is reported as ErrNoData.
func (c *YahooClient) History(ctx context.Context, symbol, period, interval string) ([]Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	start, err := PeriodStart(period, time.Now())
	if err != nil {
		return nil, err
	}
	end := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		candles []Candle
		err     error
	}
	ch := make(chan result, 1)

	go func() {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: chartInterval(interval),
		}

		iter := chart.Get(params)
		candles := make([]Candle, 0)
		for iter.Next() {
			bar := iter.Bar()
			candles = append(candles, Candle{
				Timestamp: time.Unix(int64(bar.Timestamp), 0),
				Open:      bar.Open.InexactFloat64(),
				High:      bar.High.InexactFloat64(),
				Low:       bar.Low.InexactFloat64(),
				Close:     bar.Close.InexactFloat64(),
				Volume:    int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			ch <- result{err: fmt.Errorf("history for %s: %w", symbol, err)}
			return
		}
		if len(candles) == 0 {
			ch <- result{err: fmt.Errorf("history for %s: %w", symbol, ErrNoData)}
			return
		}
		ch <- result{candles: candles}
	}()

	select {
	case r := <-ch:
		return r.candles, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("history for %s: %w", symbol, ctx.Err())
	}
}

// LastPrice returns the current price and previous close for symbol.
func (c *YahooClient) LastPrice(ctx context.Context, symbol string) (PricePair, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return PricePair{}, err
	}
	symbol = NormalizeSymbol(symbol)

	q, err := quote.Get(symbol)
	if err != nil {
		return PricePair{}, fmt.Errorf("quote for %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return PricePair{}, fmt.Errorf("quote for %s: %w", symbol, ErrNoData)
	}

	prev := q.RegularMarketPreviousClose
	if prev == 0 {
		prev = q.RegularMarketPrice
	}
	return PricePair{Last: q.RegularMarketPrice, PrevClose: prev}, nil
}
