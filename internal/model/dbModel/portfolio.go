package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	PortfolioID int64           `db:"portfolio_id"`
	UserID      int64           `db:"user_id"`
	CashBalance decimal.Decimal `db:"cash_balance"`
	InitialCash decimal.Decimal `db:"initial_cash"`
	CreatedAt   time.Time       `db:"dt_create"`
}

type Holding struct {
	PortfolioID      int64           `db:"portfolio_id"`
	Symbol           string          `db:"symbol"`
	Quantity         decimal.Decimal `db:"quantity"`
	AvgPurchasePrice decimal.Decimal `db:"avg_purchase_price"`
	TotalCostBasis   decimal.Decimal `db:"total_cost_basis"`
}

// HoldingWithCrypto is a holding row joined with its cryptocurrency row.
type HoldingWithCrypto struct {
	Holding
	Name         string          `db:"name"`
	IconURL      string          `db:"icon_url"`
	CurrentPrice decimal.Decimal `db:"current_price"`
}

type Transaction struct {
	TransactionID    string          `db:"transaction_id"`
	PortfolioID      int64           `db:"portfolio_id"`
	Symbol           string          `db:"symbol"`
	Name             string          `db:"name"`
	IconURL          string          `db:"icon_url"`
	Type             string          `db:"transaction_type"`
	Quantity         decimal.Decimal `db:"quantity"`
	PricePerUnit     decimal.Decimal `db:"price_per_unit"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	RealizedGainLoss decimal.Decimal `db:"realized_gain_loss"`
	CreatedAt        time.Time       `db:"dt_create"`
}
