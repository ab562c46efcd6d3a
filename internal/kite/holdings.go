package kite

import (
	"math"

	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/models"
)

// RawHolding is the broker-reported slice of a holding before live
// prices are applied.
type RawHolding struct {
	Symbol       string
	Exchange     string
	Quantity     float64
	AveragePrice float64
	BrokerPnL    float64
}

// SelectPnL picks between the broker-reported and the locally computed
// P&L. The broker reports 0.0 when the field is not populated, so any
// value within 0.01 of zero is discarded in favor of the computed one.
// This can mask a legitimately flat position; the policy is kept
// because the broker gives no way to tell the two cases apart.
func SelectPnL(brokerPnL, computedPnL float64) float64 {
	if math.Abs(brokerPnL) < 0.01 {
		return computedPnL
	}
	return brokerPnL
}

// BuildHolding derives the client-facing holding record from broker
// data and live prices.
func BuildHolding(raw RawHolding, currentPrice, prevClose float64) models.Holding {
	investedValue := raw.AveragePrice * raw.Quantity
	totalValue := currentPrice * raw.Quantity

	pnl := SelectPnL(raw.BrokerPnL, totalValue-investedValue)

	pnlPercent := 0.0
	if investedValue > 0 {
		pnlPercent = pnl / investedValue * 100
	}

	change := currentPrice - prevClose
	changePercent := 0.0
	if prevClose != 0 {
		changePercent = change / prevClose * 100
	}

	return models.Holding{
		Symbol:        raw.Symbol,
		Exchange:      raw.Exchange,
		Name:          raw.Symbol,
		Quantity:      raw.Quantity,
		AveragePrice:  dataflows.Round2(raw.AveragePrice),
		CurrentPrice:  dataflows.Round2(currentPrice),
		PrevClose:     dataflows.Round2(prevClose),
		Change:        dataflows.Round2(change),
		ChangePercent: dataflows.Round2(changePercent),
		PnL:           dataflows.Round2(pnl),
		PnLPercent:    dataflows.Round2(pnlPercent),
		TotalValue:    dataflows.Round2(totalValue),
		InvestedValue: dataflows.Round2(investedValue),
	}
}

// SummarizeHoldings totals the value, cost and P&L across holdings.
func SummarizeHoldings(holdings []models.Holding) (totalValue, totalInvested, totalPnL float64) {
	for _, h := range holdings {
		totalValue += h.TotalValue
		totalInvested += h.InvestedValue
		totalPnL += h.PnL
	}
	return dataflows.Round2(totalValue), dataflows.Round2(totalInvested), dataflows.Round2(totalPnL)
}
