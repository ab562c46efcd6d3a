package kite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/stockgpt/stockgpt/config"
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/models"
)

var (
	// ErrNotConfigured means the Kite credentials are absent. Callers
	// translate this into an HTTP 400, never into synthesized data.
	ErrNotConfigured = errors.New("zerodha kite connect not configured")

	// ErrSymbolNotFound means the brokerage does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Instrument tokens for the two indexes the dashboard shows. These are
// stable identifiers published by the exchange feed.
var indexTokens = map[string]int{
	"SENSEX":  265,
	"NIFTY50": 256265,
}

// Quote instruments for the same indexes, used as a fallback when the
// historical endpoint fails.
var indexInstruments = map[string]string{
	"SENSEX":  "BSE:SENSEX",
	"NIFTY50": "NSE:NIFTY 50",
}

// Client wraps the Kite Connect SDK. All account data flows through
// here; on any brokerage failure the caller gets an error or a nil
// result, never a mocked value.
type Client struct {
	kc *kiteconnect.Client

	// sleep is injectable so tests skip the inter-request pacing.
	sleep func(time.Duration)
}

// NewClient builds a Kite client, or ErrNotConfigured when any of the
// three credentials is missing.
func NewClient(cfg *config.Config) (*Client, error) {
	if !cfg.KiteConfigured() {
		return nil, ErrNotConfigured
	}

	kc := kiteconnect.New(cfg.KiteAPIKey)
	kc.SetAccessToken(cfg.KiteAccessToken)
	log.Printf("[kite] Zerodha Kite Connect initialized")

	return &Client{kc: kc, sleep: time.Sleep}, nil
}

// indexSnapshot carries everything the /api/indexes handler needs for
// one index.
type indexSnapshot struct {
	Price         float64
	Change        float64
	ChangePercent float64
	ChartData     []models.CandlePoint
}

// indexData fetches the current level and a one-year daily chart for a
// known index. A nil result means the brokerage could not supply the
// index; the caller renders zeros instead of inventing numbers.
func (c *Client) indexData(name string) *indexSnapshot {
	token, ok := indexTokens[name]
	if !ok {
		log.Printf("[kite] unknown index: %s", name)
		return nil
	}

	// Recent daily candles give both the current level and the
	// previous close; index quotes are unreliable on this API.
	end := time.Now()
	var current, prev float64
	recent, err := c.kc.GetHistoricalData(token, "day", end.AddDate(0, 0, -5), end, false, false)
	switch {
	case err != nil:
		log.Printf("[kite] recent candles for %s failed, trying quote: %v", name, err)
		current, prev = c.indexQuote(name)
	case len(recent) == 0:
		log.Printf("[kite] no recent candles for %s", name)
		return nil
	default:
		current = recent[len(recent)-1].Close
		prev = current
		if len(recent) > 1 {
			prev = recent[len(recent)-2].Close
		}
	}
	if current == 0 {
		return nil
	}

	change := current - prev
	changePercent := 0.0
	if prev != 0 {
		changePercent = change / prev * 100
	}

	snapshot := &indexSnapshot{
		Price:         dataflows.Round2(current),
		Change:        dataflows.Round2(change),
		ChangePercent: dataflows.Round2(changePercent),
		ChartData:     []models.CandlePoint{},
	}

	yearly, err := c.kc.GetHistoricalData(token, "day", end.AddDate(-1, 0, 0), end, false, false)
	if err != nil {
		log.Printf("[kite] yearly candles for %s failed: %v", name, err)
		return snapshot
	}
	for _, candle := range yearly {
		snapshot.ChartData = append(snapshot.ChartData, models.CandlePoint{
			Date:   candle.Date.Format("2006-01-02"),
			Value:  dataflows.Round2(candle.Close),
			Open:   dataflows.Round2(candle.Open),
			High:   dataflows.Round2(candle.High),
			Low:    dataflows.Round2(candle.Low),
			Volume: int64(candle.Volume),
		})
	}

	return snapshot
}

// indexQuote is the fallback index price source. Zeros mean the quote
// path failed too.
func (c *Client) indexQuote(name string) (current, prev float64) {
	instrument, ok := indexInstruments[name]
	if !ok {
		return 0, 0
	}

	quotes, err := c.kc.GetQuote(instrument)
	if err != nil {
		log.Printf("[kite] index quote for %s failed: %v", name, err)
		return 0, 0
	}
	q, ok := quotes[instrument]
	if !ok {
		return 0, 0
	}

	current = q.LastPrice
	prev = q.OHLC.Close
	if prev == 0 {
		prev = current
	}
	return current, prev
}

// Indexes returns dashboard records for SENSEX and NIFTY50. Failures
// produce zero-valued entries rather than errors or mock prices.
func (c *Client) Indexes(ctx context.Context) []models.IndexData {
	names := []string{"SENSEX", "NIFTY50"}
	out := make([]models.IndexData, 0, len(names))

	for i, name := range names {
		if i > 0 {
			// Pace requests so the brokerage does not throttle us.
			c.sleep(500 * time.Millisecond)
		}

		snapshot := c.indexData(name)
		if snapshot == nil || snapshot.Price <= 0 {
			log.Printf("[kite] failed to fetch %s, returning zero record", name)
			out = append(out, models.IndexData{
				Symbol:           name,
				Name:             name,
				ChartData:        []models.CandlePoint{},
				MonthlyChartData: []models.CandlePoint{},
			})
			continue
		}

		out = append(out, models.IndexData{
			Symbol:           name,
			Name:             name,
			Price:            snapshot.Price,
			Change:           snapshot.Change,
			ChangePercent:    snapshot.ChangePercent,
			ChartData:        snapshot.ChartData,
			MonthlyChartData: []models.CandlePoint{},
		})
	}

	return out
}

// popularStocks is the fixed ticker-tape universe of large NSE names.
var popularStocks = []models.TickerStock{
	{Symbol: "RELIANCE.NS", Name: "RELIANCE"},
	{Symbol: "TCS.NS", Name: "TCS"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC BANK"},
	{Symbol: "INFY.NS", Name: "INFY"},
	{Symbol: "ICICIBANK.NS", Name: "ICICI BANK"},
	{Symbol: "HINDUNILVR.NS", Name: "HUL"},
	{Symbol: "ITC.NS", Name: "ITC"},
	{Symbol: "SBIN.NS", Name: "SBI"},
	{Symbol: "BHARTIARTL.NS", Name: "BHARTI"},
	{Symbol: "KOTAKBANK.NS", Name: "KOTAK BANK"},
	{Symbol: "LT.NS", Name: "L&T"},
	{Symbol: "AXISBANK.NS", Name: "AXIS BANK"},
	{Symbol: "ASIANPAINT.NS", Name: "ASIAN PAINT"},
	{Symbol: "MARUTI.NS", Name: "MARUTI"},
	{Symbol: "NESTLEIND.NS", Name: "NESTLE"},
	{Symbol: "ULTRACEMCO.NS", Name: "ULTRATECH"},
	{Symbol: "WIPRO.NS", Name: "WIPRO"},
	{Symbol: "SUNPHARMA.NS", Name: "SUN PHARMA"},
	{Symbol: "ONGC.NS", Name: "ONGC"},
	{Symbol: "POWERGRID.NS", Name: "POWERGRID"},
	{Symbol: "NTPC.NS", Name: "NTPC"},
	{Symbol: "TITAN.NS", Name: "TITAN"},
	{Symbol: "BAJFINANCE.NS", Name: "BAJAJ FIN"},
	{Symbol: "HCLTECH.NS", Name: "HCL TECH"},
	{Symbol: "TECHM.NS", Name: "TECH MAHINDRA"},
}

// Ticker returns quoted records for the popular-stocks tape. Symbols
// the batch quote could not price are skipped.
func (c *Client) Ticker(ctx context.Context) ([]models.TickerStock, error) {
	instruments := make([]string, 0, len(popularStocks))
	for _, s := range popularStocks {
		instruments = append(instruments, "NSE:"+dataflows.CleanSymbol(s.Symbol))
	}

	quotes, err := c.kc.GetQuote(instruments...)
	if err != nil {
		return nil, fmt.Errorf("ticker quotes: %w", err)
	}

	out := make([]models.TickerStock, 0, len(popularStocks))
	for _, stock := range popularStocks {
		instrument := "NSE:" + dataflows.CleanSymbol(stock.Symbol)
		q, ok := quotes[instrument]
		if !ok || q.LastPrice <= 0 {
			continue
		}

		prev := q.OHLC.Close
		if prev == 0 {
			prev = q.LastPrice
		}
		change := q.LastPrice - prev
		changePercent := 0.0
		if prev != 0 {
			changePercent = change / prev * 100
		}

		out = append(out, models.TickerStock{
			Symbol:        stock.Symbol,
			Name:          stock.Name,
			Price:         dataflows.Round2(q.LastPrice),
			Change:        dataflows.Round2(change),
			ChangePercent: dataflows.Round2(changePercent),
		})
	}

	return out, nil
}

// StockDetail returns the full record for one NSE equity: live quote,
// one-year daily chart, and the valuation placeholders the brokerage
// cannot fill.
func (c *Client) StockDetail(ctx context.Context, symbol string) (*models.StockDetail, error) {
	clean := dataflows.NormalizeSymbol(dataflows.CleanSymbol(symbol))
	instrument := "NSE:" + clean

	quotes, err := c.kc.GetQuote(instrument)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", clean, err)
	}
	q, ok := quotes[instrument]
	if !ok {
		return nil, fmt.Errorf("%s: %w", clean, ErrSymbolNotFound)
	}

	current := q.LastPrice
	prev := q.OHLC.Close
	if prev == 0 {
		prev = current
	}
	change := current - prev
	changePercent := 0.0
	if prev != 0 {
		changePercent = change / prev * 100
	}

	chartData := []models.PricePoint{}
	if q.InstrumentToken != 0 {
		end := time.Now()
		historical, err := c.kc.GetHistoricalData(int(q.InstrumentToken), "day", end.AddDate(-1, 0, 0), end, false, false)
		if err != nil {
			log.Printf("[kite] historical data for %s failed: %v", clean, err)
		}
		for _, candle := range historical {
			chartData = append(chartData, models.PricePoint{
				Date:   candle.Date.Format("2006-01-02"),
				Price:  dataflows.Round2(candle.Close),
				Volume: int64(candle.Volume),
			})
		}
	}

	// 52-week bounds are approximated by circuit limits; the quote API
	// carries nothing better.
	high52 := q.UpperCircuitLimit
	if high52 == 0 {
		high52 = q.OHLC.High
	}
	low52 := q.LowerCircuitLimit
	if low52 == 0 {
		low52 = q.OHLC.Low
	}

	return &models.StockDetail{
		Symbol:        clean + ".NS",
		Name:          clean,
		Sector:        "N/A",
		Industry:      "N/A",
		Description:   "",
		Price:         dataflows.Round2(current),
		Change:        dataflows.Round2(change),
		ChangePercent: dataflows.Round2(changePercent),
		PreviousClose: dataflows.Round2(prev),
		High52W:       dataflows.Round2(high52),
		Low52W:        dataflows.Round2(low52),
		Volume:        int64(q.Volume),
		AvgVolume:     int64(q.Volume),
		ChartData:     chartData,
		QuarterlyData: []any{},
		Pros:          []string{},
		Cons:          []string{},
	}, nil
}

// Holdings returns the account's holdings with live prices and the
// P&L selection policy applied.
func (c *Client) Holdings(ctx context.Context) ([]models.Holding, error) {
	holdings, err := c.kc.GetHoldings()
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}

	instruments := make([]string, 0, len(holdings))
	for _, h := range holdings {
		instruments = append(instruments, h.Exchange+":"+h.Tradingsymbol)
	}

	quotes, err := c.kc.GetQuote(instruments...)
	if err != nil {
		log.Printf("[kite] batch quote for holdings failed: %v", err)
	}

	out := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		instrument := h.Exchange + ":" + h.Tradingsymbol

		currentPrice := h.AveragePrice
		prevClose := currentPrice
		if q, ok := quotes[instrument]; ok && q.LastPrice > 0 {
			currentPrice = q.LastPrice
			if q.OHLC.Close != 0 {
				prevClose = q.OHLC.Close
			} else {
				prevClose = currentPrice
			}
		}

		out = append(out, BuildHolding(RawHolding{
			Symbol:       h.Tradingsymbol,
			Exchange:     h.Exchange,
			Quantity:     float64(h.Quantity),
			AveragePrice: h.AveragePrice,
			BrokerPnL:    h.PnL,
		}, currentPrice, prevClose))
	}

	return out, nil
}

// Watchlist returns the account watchlist. The Kite HTTP API does not
// expose marketwatch lists, so this is always empty; the endpoint
// still reports success so the client can render an empty state.
func (c *Client) Watchlist(ctx context.Context) ([]models.WatchlistItem, error) {
	return []models.WatchlistItem{}, nil
}

// Portfolio aggregates positions and holdings into account totals.
func (c *Client) Portfolio(ctx context.Context) (*models.PortfolioSummary, error) {
	positions, err := c.kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	holdings, err := c.kc.GetHoldings()
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}

	dayPnL := 0.0
	for _, p := range positions.Day {
		dayPnL += p.PnL
	}
	netPnL := 0.0
	for _, p := range positions.Net {
		netPnL += p.PnL
	}

	totalValue, totalInvested := 0.0, 0.0
	for _, h := range holdings {
		quantity := float64(h.Quantity)
		invested := h.AveragePrice * quantity

		currentPrice := h.AveragePrice
		instrument := h.Exchange + ":" + h.Tradingsymbol
		if quotes, err := c.kc.GetQuote(instrument); err == nil {
			if q, ok := quotes[instrument]; ok && q.LastPrice > 0 {
				currentPrice = q.LastPrice
			}
		}

		totalValue += currentPrice * quantity
		totalInvested += invested
	}

	return &models.PortfolioSummary{
		DayPositions:  len(positions.Day),
		NetPositions:  len(positions.Net),
		Holdings:      len(holdings),
		DayPnL:        dataflows.Round2(dayPnL),
		NetPnL:        dataflows.Round2(netPnL),
		TotalValue:    dataflows.Round2(totalValue),
		TotalInvested: dataflows.Round2(totalInvested),
		TotalPnL:      dataflows.Round2(totalValue - totalInvested),
	}, nil
}
