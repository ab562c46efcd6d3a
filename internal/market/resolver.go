package market

import (
	"context"
	"log"
	"time"

	"github.com/stockgpt/stockgpt/internal/cache"
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/models"
)

// HistoryProvider yields an ordered candle series for a symbol.
type HistoryProvider interface {
	History(ctx context.Context, symbol, period, interval string) ([]dataflows.Candle, error)
}

// QuoteProvider yields a last/previous price pair for a symbol.
type QuoteProvider interface {
	LastPrice(ctx context.Context, symbol string) (dataflows.PricePair, error)
}

// yahooAliases maps dashboard index names onto the tickers the public
// data providers understand.
var yahooAliases = map[string]string{
	"SENSEX":  "^BSESN",
	"NIFTY50": "^NSEI",
}

// maxChartPoints caps the chart at the most recent samples.
const maxChartPoints = 50

// Resolver produces a Quote for any symbol/period/interval by walking
// the fallback chain: cache, historical series, quote-only providers,
// and finally the mock table. It never returns an error; the Status
// field reports which tier answered.
type Resolver struct {
	cache   *cache.QuoteCache
	history HistoryProvider
	quotes  []QuoteProvider
	retry   dataflows.RetryConfig
	sleep   func(time.Duration)
}

func NewResolver(c *cache.QuoteCache, history HistoryProvider, quotes ...QuoteProvider) *Resolver {
	return &Resolver{
		cache:   c,
		history: history,
		quotes:  quotes,
		retry:   dataflows.DefaultRetryConfig(),
		sleep:   time.Sleep,
	}
}

// Resolve walks the chain for one logical quote request. Every tier
// except error_fallback stores its result, so repeated requests inside
// the TTL window are byte-identical.
func (r *Resolver) Resolve(ctx context.Context, symbol, period, interval string) (q models.Quote) {
	symbol = dataflows.NormalizeSymbol(symbol)
	key := cache.Key(symbol, period, interval)

	if cached, ok := r.cache.Get(key); ok {
		log.Printf("[market] cache hit for %s", key)
		return cached
	}

	// A panic anywhere below must still produce a response. The result
	// is tagged error_fallback and deliberately not cached so the next
	// request retries the live chain.
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[market] recovered while resolving %s: %v", symbol, rec)
			q = MockQuote(symbol, models.StatusErrorFallback)
		}
	}()

	ticker := symbol
	if alias, ok := yahooAliases[symbol]; ok {
		ticker = alias
	}

	if series := r.fetchSeries(ctx, ticker, period, interval); len(series) > 0 {
		q = r.seriesQuote(symbol, interval, series)
		r.cache.Put(key, q)
		return q
	}

	if pair, ok := r.fetchPrice(ctx, ticker); ok {
		q = priceQuote(symbol, pair)
		r.cache.Put(key, q)
		return q
	}

	log.Printf("[market] all providers failed for %s, returning mock data", symbol)
	q = MockQuote(symbol, models.StatusMockData)
	r.cache.Put(key, q)
	return q
}

// intervalVariants is the order in which intervals are tried within a
// single attempt: the requested one first, then the two coarser
// standbys that almost always have data.
func intervalVariants(interval string) []string {
	variants := []string{interval, "1h", "1d"}
	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// fetchSeries runs the retried historical fetch. Within each attempt
// the interval variants are tried in order and the first non-empty
// series wins.
func (r *Resolver) fetchSeries(ctx context.Context, ticker, period, interval string) []dataflows.Candle {
	var series []dataflows.Candle

	err := dataflows.WithRetry(r.retry, r.sleep, func() error {
		var lastErr error
		for _, variant := range intervalVariants(interval) {
			candles, err := r.history.History(ctx, ticker, period, variant)
			if err != nil {
				log.Printf("[market] history %s interval %s: %v", ticker, variant, err)
				lastErr = err
				continue
			}
			if len(candles) > 0 {
				series = candles
				return nil
			}
		}
		if lastErr == nil {
			lastErr = dataflows.ErrNoData
		}
		return lastErr
	})
	if err != nil {
		log.Printf("[market] history exhausted for %s: %v", ticker, err)
		return nil
	}
	return series
}

// fetchPrice runs the retried quote-only fetch across the configured
// providers in order.
func (r *Resolver) fetchPrice(ctx context.Context, ticker string) (dataflows.PricePair, bool) {
	for _, provider := range r.quotes {
		var pair dataflows.PricePair
		err := dataflows.WithRetry(r.retry, r.sleep, func() error {
			p, err := provider.LastPrice(ctx, ticker)
			if err != nil {
				return err
			}
			if p.Last <= 0 {
				return dataflows.ErrNoData
			}
			pair = p
			return nil
		})
		if err == nil {
			return pair, true
		}
		log.Printf("[market] quote provider failed for %s: %v", ticker, err)
	}
	return dataflows.PricePair{}, false
}

// seriesQuote builds a success-tier quote from a candle series:
// current is the last close, previous the first close (or current
// itself for a single-point series), chart the most recent samples.
func (r *Resolver) seriesQuote(symbol, interval string, series []dataflows.Candle) models.Quote {
	current := series[len(series)-1].Close
	prev := current
	if len(series) > 1 {
		prev = series[0].Close
	}

	chartSeries := series
	if len(chartSeries) > maxChartPoints {
		chartSeries = chartSeries[len(chartSeries)-maxChartPoints:]
	}

	layout := "01/02"
	if dataflows.IntradayInterval(interval) {
		layout = "15:04"
	}

	chart := make([]models.ChartPoint, 0, len(chartSeries))
	for _, candle := range chartSeries {
		chart = append(chart, models.ChartPoint{
			Label: candle.Timestamp.Format(layout),
			Value: dataflows.Round2(candle.Close),
		})
	}

	return quoteFrom(symbol, current, prev, chart, models.StatusSuccess)
}

// priceQuote builds a limited_data-tier quote: price only, no chart.
func priceQuote(symbol string, pair dataflows.PricePair) models.Quote {
	return quoteFrom(symbol, pair.Last, pair.PrevClose, []models.ChartPoint{}, models.StatusLimitedData)
}

func quoteFrom(symbol string, current, prev float64, chart []models.ChartPoint, status models.Status) models.Quote {
	change := current - prev
	changePercent := 0.0
	if prev != 0 {
		changePercent = change / prev * 100
	}

	return models.Quote{
		Symbol:        symbol,
		CurrentPrice:  dataflows.Round2(current),
		PreviousClose: dataflows.Round2(prev),
		Change:        dataflows.Round2(change),
		ChangePercent: dataflows.Round2(changePercent),
		ChartData:     chart,
		DataPoints:    len(chart),
		Status:        status,
	}
}
