package models

// Status identifies which tier of the fallback chain produced a Quote.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusLimitedData   Status = "limited_data"
	StatusMockData      Status = "mock_data"
	StatusErrorFallback Status = "error_fallback"
)

// ChartPoint is a single labelled sample on a price chart. The label is
// a time of day for intraday intervals and a date otherwise.
type ChartPoint struct {
	Label string  `json:"time"`
	Value float64 `json:"value"`
}

// Quote is the normalized price record returned by the public-data
// path. Change and ChangePercent are always derived from CurrentPrice
// and PreviousClose; Status is never upgraded past the tier that
// actually produced the data.
type Quote struct {
	Symbol        string       `json:"symbol"`
	CurrentPrice  float64      `json:"current_price"`
	PreviousClose float64      `json:"previous_close"`
	Change        float64      `json:"change"`
	ChangePercent float64      `json:"change_percent"`
	ChartData     []ChartPoint `json:"chart_data"`
	DataPoints    int          `json:"data_points,omitempty"`
	Status        Status       `json:"status"`
}

// CandlePoint is a daily OHLCV sample on a brokerage chart.
type CandlePoint struct {
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// IndexData is one entry of the /api/indexes response. Zero-valued
// fields mean the brokerage could not supply the index.
type IndexData struct {
	Symbol           string        `json:"symbol"`
	Name             string        `json:"name"`
	Price            float64       `json:"price"`
	Change           float64       `json:"change"`
	ChangePercent    float64       `json:"changePercent"`
	ChartData        []CandlePoint `json:"chartData"`
	MonthlyChartData []CandlePoint `json:"monthlyChartData"`
}

// TickerStock is one entry of the ticker-tape response.
type TickerStock struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// PricePoint is a dated close used by the stock-detail chart.
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// StockDetail is the full stock record. Most valuation fields are
// zero or "N/A" because the brokerage quote API does not supply them.
type StockDetail struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Sector        string       `json:"sector"`
	Industry      string       `json:"industry"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	Change        float64      `json:"change"`
	ChangePercent float64      `json:"changePercent"`
	PreviousClose float64      `json:"previousClose"`
	MarketCap     float64      `json:"marketCap"`
	PE            float64      `json:"pe"`
	PB            float64      `json:"pb"`
	DividendYield float64      `json:"dividendYield"`
	BookValue     float64      `json:"bookValue"`
	ROE           float64      `json:"roe"`
	ROCE          float64      `json:"roce"`
	High52W       float64      `json:"high52w"`
	Low52W        float64      `json:"low52w"`
	Volume        int64        `json:"volume"`
	AvgVolume     int64        `json:"avgVolume"`
	ChartData     []PricePoint `json:"chartData"`
	QuarterlyData []any        `json:"quarterlyData"`
	Pros          []string     `json:"pros"`
	Cons          []string     `json:"cons"`
}
