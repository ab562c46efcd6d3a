package dataflows

import "time"

// Candle is one bar of a historical price series, oldest first when
// returned in a slice.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PricePair is a quote-only result: last traded price and the previous
// session's close.
type PricePair struct {
	Last      float64
	PrevClose float64
}
