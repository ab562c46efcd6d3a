package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// NSEClient reads last/previous prices from the public NSE JSON API.
// It is the second quote-only fallback behind Yahoo. The exchange
// requires browser-ish headers and a cookie warmup request before it
// serves quote endpoints.
type NSEClient struct {
	client *resty.Client
}

func NewNSEClient() *NSEClient {
	client := resty.New()
	client.SetBaseURL("https://www.nseindia.com")
	client.SetTimeout(10 * time.Second)
	client.SetHeaders(map[string]string{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
	})

	return &NSEClient{client: client}
}

type nseQuoteResponse struct {
	PriceInfo struct {
		LastPrice     float64 `json:"lastPrice"`
		PreviousClose float64 `json:"previousClose"`
	} `json:"priceInfo"`
}

// warmup primes the session cookies the exchange hands out on the
// landing page. Errors are ignored; the quote call reports the real
// failure if the warmup did not help.
func (c *NSEClient) warmup(ctx context.Context) {
	_, _ = c.client.R().SetContext(ctx).Get("/")
}

// LastPrice returns the last traded price and previous close for an
// NSE equity symbol.
func (c *NSEClient) LastPrice(ctx context.Context, symbol string) (PricePair, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return PricePair{}, err
	}
	symbol = NormalizeSymbol(CleanSymbol(symbol))

	c.warmup(ctx)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get("/api/quote-equity")
	if err != nil {
		return PricePair{}, fmt.Errorf("nse quote for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return PricePair{}, fmt.Errorf("nse quote for %s: %w", symbol, ErrRateLimited)
	}
	if resp.StatusCode() != http.StatusOK {
		return PricePair{}, fmt.Errorf("nse quote for %s: status %d", symbol, resp.StatusCode())
	}

	var parsed nseQuoteResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return PricePair{}, fmt.Errorf("nse quote for %s: %w", symbol, err)
	}
	if parsed.PriceInfo.LastPrice <= 0 {
		return PricePair{}, fmt.Errorf("nse quote for %s: %w", symbol, ErrNoData)
	}

	prev := parsed.PriceInfo.PreviousClose
	if prev == 0 {
		prev = parsed.PriceInfo.LastPrice
	}
	return PricePair{Last: parsed.PriceInfo.LastPrice, PrevClose: prev}, nil
}
