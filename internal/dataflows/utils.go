package dataflows

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrRateLimited marks upstream throttling; retries back off
	// exponentially instead of using the fixed delay.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrNoData means the provider answered but had nothing usable.
	ErrNoData = errors.New("no data returned by provider")
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int
	FixedDelay  time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig returns the retry defaults used by every provider
// call: three attempts, a short fixed pause between them, exponential
// backoff when the upstream is rate limiting.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		FixedDelay:  1 * time.Second,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// WithRetry executes fn up to cfg.MaxAttempts times. sleep is
// injectable so tests run without real delays; pass nil for time.Sleep.
func WithRetry(cfg RetryConfig, sleep func(time.Duration), fn func() error) error {
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.FixedDelay
			if IsRateLimited(lastErr) {
				delay = cfg.BaseBackoff * time.Duration(1<<(attempt-1))
				if delay > cfg.MaxBackoff {
					delay = cfg.MaxBackoff
				}
			}
			sleep(delay)
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// IsRateLimited reports whether err looks like upstream throttling,
// either the sentinel or a 429 surfaced as text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}

// CleanSymbol strips the Yahoo-style exchange suffixes used by the web
// client ("RELIANCE.NS" -> "RELIANCE").
func CleanSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	symbol = strings.TrimSuffix(symbol, ".NS")
	symbol = strings.TrimSuffix(symbol, ".BO")
	return symbol
}

// NormalizeSymbol converts a symbol to its canonical upper-case form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol checks that a symbol is plausible before it is sent
// upstream.
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

// PeriodStart translates a Yahoo-style period string into the start of
// the requested window, relative to now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d", "":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "max":
		return now.AddDate(-30, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period: %s", period)
	}
}

// Round2 rounds a price to two decimal places, the precision every
// response in the API uses.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IntradayInterval reports whether chart labels should use time of day
// rather than dates.
func IntradayInterval(interval string) bool {
	switch interval {
	case "1m", "2m", "5m", "15m", "30m", "60m", "1h":
		return true
	}
	return false
}
