package rest

import (
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/shopspring/decimal"
)

type cryptoView struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	IconURL        string          `json:"icon_url"`
	Category       string          `json:"category"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChange24h decimal.Decimal `json:"price_change_24h"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
	MarketCap      decimal.Decimal `json:"market_cap"`
	LastUpdated    time.Time       `json:"last_updated"`
}

type cryptoDetailView struct {
	cryptoView
	PriceHistory7d []model.PricePoint `json:"price_history_7d"`
}

type holdingView struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	IconURL          string          `json:"icon_url"`
	Quantity         decimal.Decimal `json:"quantity"`
	AvgPurchasePrice decimal.Decimal `json:"avg_purchase_price"`
	TotalCostBasis   decimal.Decimal `json:"total_cost_basis"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	GainLoss         decimal.Decimal `json:"gain_loss"`
	GainLossPct      decimal.Decimal `json:"gain_loss_pct"`
}

type summaryView struct {
	CashBalance         decimal.Decimal `json:"cash_balance"`
	TotalHoldingsValue  decimal.Decimal `json:"total_holdings_value"`
	TotalPortfolioValue decimal.Decimal `json:"total_portfolio_value"`
	InitialInvestment   decimal.Decimal `json:"initial_investment"`
	TotalGainLoss       decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPct    decimal.Decimal `json:"total_gain_loss_pct"`
	LastUpdated         time.Time       `json:"last_updated"`
}

type transactionView struct {
	TransactionID    string          `json:"transaction_id"`
	Type             string          `json:"type"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	IconURL          string          `json:"icon_url"`
	Quantity         decimal.Decimal `json:"quantity"`
	PricePerUnit     decimal.Decimal `json:"price_per_unit"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	RealizedGainLoss decimal.Decimal `json:"realized_gain_loss"`
	CreatedAt        time.Time       `json:"created_at"`
}

type userView struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	DateOfBirth   string `json:"date_of_birth"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Country       string `json:"country"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}

func toCryptoView(c model.Crypto) cryptoView {
	return cryptoView{
		Symbol:         c.Symbol,
		Name:           c.Name,
		IconURL:        c.IconURL,
		Category:       c.Category,
		CurrentPrice:   c.CurrentPrice,
		PriceChange24h: c.PriceChange24h,
		Volume24h:      c.Volume24h,
		MarketCap:      c.MarketCap,
		LastUpdated:    c.LastUpdated,
	}
}

func toHoldingViews(holdings []model.Holding) []holdingView {
	views := make([]holdingView, 0, len(holdings))
	for _, h := range holdings {
		views = append(views, holdingView{
			Symbol:           h.Symbol,
			Name:             h.Name,
			IconURL:          h.IconURL,
			Quantity:         h.Quantity,
			AvgPurchasePrice: h.AvgPurchasePrice,
			TotalCostBasis:   h.TotalCostBasis,
			CurrentPrice:     h.CurrentPrice,
			CurrentValue:     h.CurrentValue,
			GainLoss:         h.GainLoss,
			GainLossPct:      h.GainLossPct,
		})
	}
	return views
}

func toSummaryView(s model.PortfolioSummary) summaryView {
	return summaryView{
		CashBalance:         s.CashBalance,
		TotalHoldingsValue:  s.TotalHoldingsValue,
		TotalPortfolioValue: s.TotalPortfolioValue,
		InitialInvestment:   s.InitialInvestment,
		TotalGainLoss:       s.TotalGainLoss,
		TotalGainLossPct:    s.TotalGainLossPct,
		LastUpdated:         s.LastUpdated,
	}
}

func toTransactionView(t model.Transaction) transactionView {
	return transactionView{
		TransactionID:    t.ID,
		Type:             t.Type,
		Symbol:           t.Symbol,
		Name:             t.Name,
		IconURL:          t.IconURL,
		Quantity:         t.Quantity,
		PricePerUnit:     t.PricePerUnit,
		TotalAmount:      t.TotalAmount,
		RealizedGainLoss: t.RealizedGainLoss,
		CreatedAt:        t.CreatedAt,
	}
}

func toUserView(u model.UserAccount) userView {
	return userView{
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Username:      u.Username,
		Email:         u.Email,
		DateOfBirth:   u.DateOfBirth,
		Address:       u.Address,
		City:          u.City,
		State:         u.State,
		ZipCode:       u.ZipCode,
		Country:       u.Country,
		AccountNumber: u.AccountNumber,
		AccountType:   u.AccountType,
	}
}
