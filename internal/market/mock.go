package market

import (
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/models"
)

// mockPrices are approximate real-world magnitudes for the symbols the
// dashboard always shows. Unknown symbols fall back to a fixed
// placeholder. This table is the guaranteed terminal tier of the
// fallback chain.
var mockPrices = map[string]float64{
	"SENSEX":  75000,
	"NIFTY50": 24000,
}

const defaultMockPrice = 50000

// MockQuote builds the synthetic quote used when every provider has
// failed. Previous close is 99% of the mock price so the record still
// shows a plausible gain; the change invariants hold exactly.
func MockQuote(symbol string, status models.Status) models.Quote {
	symbol = dataflows.NormalizeSymbol(symbol)

	price, ok := mockPrices[symbol]
	if !ok {
		price = defaultMockPrice
	}
	prev := price * 0.99
	change := price - prev

	return models.Quote{
		Symbol:        symbol,
		CurrentPrice:  dataflows.Round2(price),
		PreviousClose: dataflows.Round2(prev),
		Change:        dataflows.Round2(change),
		ChangePercent: dataflows.Round2(change / prev * 100),
		ChartData:     []models.ChartPoint{},
		Status:        status,
	}
}
