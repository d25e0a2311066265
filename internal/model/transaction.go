package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeBuy  = "BUY"
	TransactionTypeSell = "SELL"
)

// Transaction is an immutable record of one executed trade.
type Transaction struct {
	ID               string
	Type             string
	Symbol           string
	Name             string
	IconURL          string
	Quantity         decimal.Decimal
	PricePerUnit     decimal.Decimal
	TotalAmount      decimal.Decimal
	RealizedGainLoss decimal.Decimal
	CreatedAt        time.Time
}

// TradeResult is what a buy/sell returns: the booked transaction plus the
// portfolio state after it.
type TradeResult struct {
	Transaction Transaction
	Portfolio   PortfolioSummary
}
