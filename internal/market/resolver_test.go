package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockgpt/stockgpt/internal/cache"
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/models"
)

type fakeHistory struct {
	candles []dataflows.Candle
	err     error
	calls   int
}

func (f *fakeHistory) History(_ context.Context, _, _, _ string) ([]dataflows.Candle, error) {
	f.calls++
	return f.candles, f.err
}

type panicHistory struct{}

func (panicHistory) History(_ context.Context, _, _, _ string) ([]dataflows.Candle, error) {
	panic("upstream decoder blew up")
}

type fakeQuote struct {
	pair  dataflows.PricePair
	err   error
	calls int
}

func (f *fakeQuote) LastPrice(_ context.Context, _ string) (dataflows.PricePair, error) {
	f.calls++
	return f.pair, f.err
}

func newTestResolver(history HistoryProvider, quotes ...QuoteProvider) *Resolver {
	r := NewResolver(cache.NewQuoteCache(30*time.Second, true), history, quotes...)
	r.sleep = func(time.Duration) {}
	return r
}

func candleSeries(closes ...float64) []dataflows.Candle {
	base := time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC)
	out := make([]dataflows.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, dataflows.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Close:     c,
		})
	}
	return out
}

func TestResolveFromHistory(t *testing.T) {
	history := &fakeHistory{candles: candleSeries(100, 102, 105)}
	r := newTestResolver(history)

	q := r.Resolve(context.Background(), "reliance", "5d", "1h")

	if q.Status != models.StatusSuccess {
		t.Fatalf("expected success status, got %s", q.Status)
	}
	if q.Symbol != "RELIANCE" {
		t.Errorf("expected normalized symbol RELIANCE, got %s", q.Symbol)
	}
	if q.CurrentPrice != 105 {
		t.Errorf("current price should be the last close, got %v", q.CurrentPrice)
	}
	if q.PreviousClose != 100 {
		t.Errorf("previous close should be the first close, got %v", q.PreviousClose)
	}
	if q.Change != 5 {
		t.Errorf("expected change 5, got %v", q.Change)
	}
	if q.ChangePercent != 5 {
		t.Errorf("expected change percent 5, got %v", q.ChangePercent)
	}
	if len(q.ChartData) != 3 || q.DataPoints != 3 {
		t.Errorf("expected 3 chart points, got %d/%d", len(q.ChartData), q.DataPoints)
	}
	// 1h is intraday, so labels carry time of day.
	if q.ChartData[0].Label != "09:15" {
		t.Errorf("expected intraday label 09:15, got %s", q.ChartData[0].Label)
	}
}

func TestResolveSinglePointSeries(t *testing.T) {
	r := newTestResolver(&fakeHistory{candles: candleSeries(250)})

	q := r.Resolve(context.Background(), "TCS", "1d", "1d")

	if q.CurrentPrice != 250 || q.PreviousClose != 250 {
		t.Fatalf("single point series must use itself as previous close, got %v/%v", q.CurrentPrice, q.PreviousClose)
	}
	if q.Change != 0 || q.ChangePercent != 0 {
		t.Errorf("expected zero change, got %v/%v", q.Change, q.ChangePercent)
	}
}

func TestResolveChartCappedAtFiftyPoints(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	r := newTestResolver(&fakeHistory{candles: candleSeries(closes...)})

	q := r.Resolve(context.Background(), "INFY", "1y", "1d")

	if len(q.ChartData) != 50 {
		t.Fatalf("expected chart capped at 50 points, got %d", len(q.ChartData))
	}
	// The cap keeps the most recent samples, and current price is still
	// derived from the full series.
	if q.ChartData[len(q.ChartData)-1].Value != 219 {
		t.Errorf("expected last chart value 219, got %v", q.ChartData[len(q.ChartData)-1].Value)
	}
	if q.CurrentPrice != 219 || q.PreviousClose != 100 {
		t.Errorf("expected current 219 prev 100, got %v/%v", q.CurrentPrice, q.PreviousClose)
	}
}

func TestResolveFallsBackToQuoteProvider(t *testing.T) {
	history := &fakeHistory{err: errors.New("chart endpoint down")}
	quotes := &fakeQuote{pair: dataflows.PricePair{Last: 2650, PrevClose: 2600}}
	r := newTestResolver(history, quotes)

	q := r.Resolve(context.Background(), "RELIANCE", "1d", "5m")

	if q.Status != models.StatusLimitedData {
		t.Fatalf("expected limited_data status, got %s", q.Status)
	}
	if q.CurrentPrice != 2650 || q.PreviousClose != 2600 {
		t.Errorf("expected 2650/2600, got %v/%v", q.CurrentPrice, q.PreviousClose)
	}
	if q.ChangePercent != 1.92 {
		t.Errorf("expected change percent 1.92, got %v", q.ChangePercent)
	}
	if len(q.ChartData) != 0 {
		t.Errorf("limited_data quote must not carry a chart, got %d points", len(q.ChartData))
	}
	// The history tier retried before giving up.
	if history.calls < 3 {
		t.Errorf("expected at least 3 history attempts, got %d", history.calls)
	}
}

func TestResolveQuoteProvidersTriedInOrder(t *testing.T) {
	history := &fakeHistory{err: dataflows.ErrNoData}
	first := &fakeQuote{err: errors.New("429 Too Many Requests")}
	second := &fakeQuote{pair: dataflows.PricePair{Last: 500, PrevClose: 490}}
	r := newTestResolver(history, first, second)

	q := r.Resolve(context.Background(), "SBIN", "1d", "5m")

	if q.Status != models.StatusLimitedData {
		t.Fatalf("expected limited_data status, got %s", q.Status)
	}
	if first.calls != 3 {
		t.Errorf("expected first provider exhausted after 3 attempts, got %d", first.calls)
	}
	if second.calls != 1 {
		t.Errorf("expected second provider to answer on first attempt, got %d", second.calls)
	}
}

func TestResolveMockTier(t *testing.T) {
	history := &fakeHistory{err: dataflows.ErrNoData}
	quotes := &fakeQuote{err: errors.New("connection refused")}
	r := newTestResolver(history, quotes)

	q := r.Resolve(context.Background(), "SENSEX", "1d", "5m")

	if q.Status != models.StatusMockData {
		t.Fatalf("expected mock_data status, got %s", q.Status)
	}
	if q.CurrentPrice != 75000 {
		t.Errorf("expected mock SENSEX price 75000, got %v", q.CurrentPrice)
	}
	if q.Change <= 0 {
		t.Errorf("mock quote should show a gain, got change %v", q.Change)
	}
}

func TestResolveUnknownSymbolMockPrice(t *testing.T) {
	r := newTestResolver(&fakeHistory{err: dataflows.ErrNoData}, &fakeQuote{err: dataflows.ErrNoData})

	q := r.Resolve(context.Background(), "NOSUCH", "1d", "5m")

	if q.Status != models.StatusMockData {
		t.Fatalf("expected mock_data status, got %s", q.Status)
	}
	if q.CurrentPrice != 50000 {
		t.Errorf("expected default mock price 50000, got %v", q.CurrentPrice)
	}
}

func TestResolvePanicBecomesErrorFallback(t *testing.T) {
	r := newTestResolver(panicHistory{})

	q := r.Resolve(context.Background(), "RELIANCE", "1d", "5m")

	if q.Status != models.StatusErrorFallback {
		t.Fatalf("expected error_fallback status, got %s", q.Status)
	}
	// error_fallback results are never cached, so the next request hits
	// the providers again instead of replaying the synthetic quote.
	if n := r.cache.Len(); n != 0 {
		t.Errorf("error_fallback must not be cached, cache has %d entries", n)
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	history := &fakeHistory{candles: candleSeries(100, 105)}
	r := newTestResolver(history)

	first := r.Resolve(context.Background(), "RELIANCE", "5d", "1h")
	second := r.Resolve(context.Background(), "RELIANCE", "5d", "1h")

	if history.calls != 1 {
		t.Fatalf("second resolve within TTL must come from cache, provider called %d times", history.calls)
	}
	if first.CurrentPrice != second.CurrentPrice || first.Status != second.Status {
		t.Errorf("cached quote differs from original: %+v vs %+v", first, second)
	}
}

func TestResolveMockTierCached(t *testing.T) {
	history := &fakeHistory{err: dataflows.ErrNoData}
	quotes := &fakeQuote{err: dataflows.ErrNoData}
	r := newTestResolver(history, quotes)

	r.Resolve(context.Background(), "SENSEX", "1d", "5m")
	historyCalls, quoteCalls := history.calls, quotes.calls

	r.Resolve(context.Background(), "SENSEX", "1d", "5m")

	if history.calls != historyCalls || quotes.calls != quoteCalls {
		t.Error("mock_data result should be cached within the TTL window")
	}
}

func TestResolveIndexAliasKeepsDisplaySymbol(t *testing.T) {
	var seen string
	history := &aliasRecorder{seen: &seen, candles: candleSeries(24000, 24100)}
	r := newTestResolver(history)

	q := r.Resolve(context.Background(), "NIFTY50", "1d", "1h")

	if seen != "^NSEI" {
		t.Errorf("expected provider to receive Yahoo alias ^NSEI, got %s", seen)
	}
	if q.Symbol != "NIFTY50" {
		t.Errorf("response must keep the display symbol, got %s", q.Symbol)
	}
}

type aliasRecorder struct {
	seen    *string
	candles []dataflows.Candle
}

func (a *aliasRecorder) History(_ context.Context, symbol, _, _ string) ([]dataflows.Candle, error) {
	*a.seen = symbol
	return a.candles, nil
}

func TestIntervalVariants(t *testing.T) {
	got := intervalVariants("5m")
	want := []string{"5m", "1h", "1d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	// Requesting one of the standby intervals must not produce a
	// duplicate attempt.
	if got := intervalVariants("1h"); len(got) != 2 || got[0] != "1h" || got[1] != "1d" {
		t.Errorf("expected [1h 1d], got %v", got)
	}
	if got := intervalVariants("1d"); len(got) != 2 || got[0] != "1d" || got[1] != "1h" {
		t.Errorf("expected [1d 1h], got %v", got)
	}
}
