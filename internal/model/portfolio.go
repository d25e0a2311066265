package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	PortfolioID int64
	CashBalance decimal.Decimal
	InitialCash decimal.Decimal
	CreatedAt   time.Time
}

// HoldingBase is a position as stored: quantity plus its blended cost basis.
type HoldingBase struct {
	Symbol           string
	Quantity         decimal.Decimal
	AvgPurchasePrice decimal.Decimal
	TotalCostBasis   decimal.Decimal
}

// Holding is a position enriched with market data and mark-to-market figures.
type Holding struct {
	Symbol           string
	Name             string
	IconURL          string
	Quantity         decimal.Decimal
	AvgPurchasePrice decimal.Decimal
	TotalCostBasis   decimal.Decimal
	CurrentPrice     decimal.Decimal
	CurrentValue     decimal.Decimal
	GainLoss         decimal.Decimal
	GainLossPct      decimal.Decimal
}

type PortfolioSummary struct {
	CashBalance         decimal.Decimal
	TotalHoldingsValue  decimal.Decimal
	TotalPortfolioValue decimal.Decimal
	InitialInvestment   decimal.Decimal
	TotalGainLoss       decimal.Decimal
	TotalGainLossPct    decimal.Decimal
	LastUpdated         time.Time
}

type ValuePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"portfolio_value"`
}

type PortfolioHistory struct {
	Timeframe string
	Points    []ValuePoint
}
