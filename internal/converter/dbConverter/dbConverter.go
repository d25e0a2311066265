package dbConverter

import (
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func ConvertPortfolio(dbPortfolio dbModel.Portfolio) model.Portfolio {
	return model.Portfolio{
		PortfolioID: dbPortfolio.PortfolioID,
		CashBalance: dbPortfolio.CashBalance,
		InitialCash: dbPortfolio.InitialCash,
		CreatedAt:   dbPortfolio.CreatedAt,
	}
}

func ConvertCrypto(dbCrypto dbModel.Crypto) model.Crypto {
	crypto := model.Crypto{
		Symbol:      dbCrypto.Symbol,
		Name:        dbCrypto.Name,
		CoingeckoID: dbCrypto.CoingeckoID,
		YahooSymbol: dbCrypto.YahooSymbol.String,
		IconURL:     dbCrypto.IconURL.String,
		Category:    dbCrypto.Category,
		IsActive:    dbCrypto.IsActive,
	}

	if dbCrypto.CurrentPrice.Valid {
		crypto.CurrentPrice = dbCrypto.CurrentPrice.Decimal
	}
	if dbCrypto.PriceChange24h.Valid {
		crypto.PriceChange24h = dbCrypto.PriceChange24h.Decimal
	}
	if dbCrypto.Volume24h.Valid {
		crypto.Volume24h = dbCrypto.Volume24h.Decimal
	}
	if dbCrypto.MarketCap.Valid {
		crypto.MarketCap = dbCrypto.MarketCap.Decimal
	}
	if dbCrypto.LastUpdated.Valid {
		crypto.LastUpdated = dbCrypto.LastUpdated.Time
	}

	return crypto
}

func ConvertHolding(dbHolding dbModel.Holding) model.HoldingBase {
	return model.HoldingBase{
		Symbol:           dbHolding.Symbol,
		Quantity:         dbHolding.Quantity,
		AvgPurchasePrice: dbHolding.AvgPurchasePrice,
		TotalCostBasis:   dbHolding.TotalCostBasis,
	}
}

func ConvertHoldingWithCrypto(dbHolding dbModel.HoldingWithCrypto) model.Holding {
	holding := model.Holding{
		Symbol:           dbHolding.Symbol,
		Name:             dbHolding.Name,
		IconURL:          dbHolding.IconURL,
		Quantity:         dbHolding.Quantity,
		AvgPurchasePrice: dbHolding.AvgPurchasePrice,
		TotalCostBasis:   dbHolding.TotalCostBasis,
		CurrentPrice:     dbHolding.CurrentPrice,
	}

	holding.CurrentValue = holding.Quantity.Mul(holding.CurrentPrice)
	holding.GainLoss = holding.CurrentValue.Sub(holding.TotalCostBasis)
	if !holding.TotalCostBasis.IsZero() {
		holding.GainLossPct = holding.GainLoss.Div(holding.TotalCostBasis).Mul(decimal.NewFromInt(100))
	}

	return holding
}

func ConvertTransaction(dbTxn dbModel.Transaction) model.Transaction {
	return model.Transaction{
		ID:               dbTxn.TransactionID,
		Type:             dbTxn.Type,
		Symbol:           dbTxn.Symbol,
		Name:             dbTxn.Name,
		IconURL:          dbTxn.IconURL,
		Quantity:         dbTxn.Quantity,
		PricePerUnit:     dbTxn.PricePerUnit,
		TotalAmount:      dbTxn.TotalAmount,
		RealizedGainLoss: dbTxn.RealizedGainLoss,
		CreatedAt:        dbTxn.CreatedAt,
	}
}

func ConvertUser(dbUser dbModel.User) model.UserAccount {
	return model.UserAccount{
		FirstName:     dbUser.FirstName,
		LastName:      dbUser.LastName,
		Username:      dbUser.Username,
		Email:         dbUser.Email,
		DateOfBirth:   dbUser.DateOfBirth.String,
		Address:       dbUser.Address.String,
		City:          dbUser.City.String,
		State:         dbUser.State.String,
		ZipCode:       dbUser.ZipCode.String,
		Country:       dbUser.Country.String,
		AccountNumber: dbUser.AccountNumber.String,
		AccountType:   dbUser.AccountType,
	}
}
