package models

// Holding is one brokerage holding enriched with live prices.
// InvestedValue and TotalValue are always recomputed here; PnL prefers
// the broker-reported figure unless it is within 0.01 of zero, which
// the broker uses to mean "not populated".
type Holding struct {
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"averagePrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	PrevClose     float64 `json:"prevClose"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PnL           float64 `json:"pnl"`
	PnLPercent    float64 `json:"pnlPercent"`
	TotalValue    float64 `json:"totalValue"`
	InvestedValue float64 `json:"investedValue"`
}

// WatchlistItem is one quoted entry of a brokerage watchlist.
type WatchlistItem struct {
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PrevClose     float64 `json:"prevClose"`
}

// PortfolioSummary aggregates positions and holdings totals.
type PortfolioSummary struct {
	DayPositions  int     `json:"dayPositions"`
	NetPositions  int     `json:"netPositions"`
	Holdings      int     `json:"holdings"`
	DayPnL        float64 `json:"dayPnl"`
	NetPnL        float64 `json:"netPnl"`
	TotalValue    float64 `json:"totalValue"`
	TotalInvested float64 `json:"totalInvested"`
	TotalPnL      float64 `json:"totalPnl"`
}
