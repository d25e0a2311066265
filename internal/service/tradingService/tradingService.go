package tradingService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/data/repository"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// minTradeAmount is the smallest accepted trade size in USD.
var minTradeAmount = decimal.RequireFromString("0.01")

// quantityScale is the number of decimal places quantities are stored with.
const quantityScale = 10

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	GetDefaultPortfolio(ctx context.Context) (model.Portfolio, error)
	GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error)
	GetPortfolioForUpdate(ctx context.Context, portfolioID int64) (model.Portfolio, error)
	UpdatePortfolioCash(ctx context.Context, portfolioID int64, cashBalance decimal.Decimal) error
	GetCrypto(ctx context.Context, symbol string) (model.Crypto, error)
	GetActiveCryptos(ctx context.Context) ([]model.Crypto, error)
	UpdateCryptoQuote(ctx context.Context, quote model.Quote, updatedAt time.Time) error
	InsertPriceHistory(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
	GetHolding(ctx context.Context, portfolioID int64, symbol string) (model.HoldingBase, error)
	GetHoldings(ctx context.Context, portfolioID int64) ([]model.Holding, error)
	InsertHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) error
	UpdateHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) error
	DeleteHolding(ctx context.Context, portfolioID int64, symbol string) error
	InsertTransaction(ctx context.Context, portfolioID int64, txn model.Transaction) error
	GetTransactions(ctx context.Context, portfolioID int64, txnType string, limit, offset int) ([]model.Transaction, error)
	GetTransactionsSince(ctx context.Context, portfolioID int64, since time.Time) ([]model.Transaction, error)
	GetFirstTransactionTime(ctx context.Context, portfolioID int64) (time.Time, error)
	GetDemoUser(ctx context.Context) (model.UserAccount, error)
}

type Cache interface {
	GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error)
	SetHistoricalPrices(ctx context.Context, coingeckoID string, days int, points []model.PricePoint) error
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

type CoingeckoApi interface {
	GetCurrentQuotes(ctx context.Context, cryptos []model.Crypto) (map[string]model.Quote, error)
	GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error)
}

type FinnhubApi interface {
	GetCryptoNews(ctx context.Context, limit int) ([]model.NewsArticle, error)
}

type YahooApi interface {
	GetPriceHistory(ctx context.Context, yahooSymbol, timeframe string) ([]model.PricePoint, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, txns []model.Transaction) (fileBytes []byte, fileExtension string, err error)
}

type Broadcaster interface {
	BroadcastPriceUpdate(update model.PriceUpdate)
}

type TradingService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	coingeckoApi    CoingeckoApi
	finnhubApi      FinnhubApi
	yahooApi        YahooApi
	reportGenerator ReportGenerator
	broadcaster     Broadcaster
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	coingeckoApi CoingeckoApi,
	finnhubApi FinnhubApi,
	yahooApi YahooApi,
	reportGenerator ReportGenerator,
	broadcaster Broadcaster,
) *TradingService {
	return &TradingService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		coingeckoApi:    coingeckoApi,
		finnhubApi:      finnhubApi,
		yahooApi:        yahooApi,
		reportGenerator: reportGenerator,
		broadcaster:     broadcaster,
	}
}

// resolveTradeSize turns the amount-or-quantity pair into an executed
// quantity and USD amount at the given price. Exactly one of amountUSD and
// quantity must be set and positive.
func resolveTradeSize(amountUSD, quantity *decimal.Decimal, price decimal.Decimal) (execQty, execAmount decimal.Decimal, err error) {
	switch {
	case amountUSD != nil && quantity != nil:
		return decimal.Decimal{}, decimal.Decimal{}, service.ErrInvalidTradeRequest
	case amountUSD != nil:
		if !amountUSD.IsPositive() {
			return decimal.Decimal{}, decimal.Decimal{}, service.ErrInvalidTradeRequest
		}
		execQty = amountUSD.Div(price).Truncate(quantityScale)
		if !execQty.IsPositive() {
			return decimal.Decimal{}, decimal.Decimal{}, service.ErrBelowMinTradeAmount
		}
		return execQty, *amountUSD, nil
	case quantity != nil:
		if !quantity.IsPositive() {
			return decimal.Decimal{}, decimal.Decimal{}, service.ErrInvalidTradeRequest
		}
		execQty = quantity.Truncate(quantityScale)
		if !execQty.IsPositive() {
			return decimal.Decimal{}, decimal.Decimal{}, service.ErrInvalidTradeRequest
		}
		return execQty, execQty.Mul(price), nil
	default:
		return decimal.Decimal{}, decimal.Decimal{}, service.ErrInvalidTradeRequest
	}
}

func (s *TradingService) ExecuteBuy(ctx context.Context, portfolioID int64, symbol string, amountUSD, quantity *decimal.Decimal) (model.TradeResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ExecuteBuy"

	slog.Debug("ExecuteBuy start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("ExecuteBuy finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	crypto, err := s.getTradableCrypto(ctx, symbol)
	if err != nil {
		return model.TradeResult{}, err
	}

	price := crypto.CurrentPrice

	execQty, execAmount, err := resolveTradeSize(amountUSD, quantity, price)
	if err != nil {
		return model.TradeResult{}, err
	}

	if execAmount.LessThan(minTradeAmount) {
		return model.TradeResult{}, service.ErrBelowMinTradeAmount
	}

	txn := model.Transaction{
		ID:               uuid.NewString(),
		Type:             model.TransactionTypeBuy,
		Symbol:           crypto.Symbol,
		Name:             crypto.Name,
		IconURL:          crypto.IconURL,
		Quantity:         execQty,
		PricePerUnit:     price,
		TotalAmount:      execAmount,
		RealizedGainLoss: decimal.Zero,
		CreatedAt:        time.Now().UTC(),
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		portfolio, err := s.repo.GetPortfolioForUpdate(ctx, portfolioID)
		if err != nil {
			return err
		}

		if execAmount.GreaterThan(portfolio.CashBalance) {
			return service.ErrInsufficientFunds
		}

		err = s.repo.UpdatePortfolioCash(ctx, portfolioID, portfolio.CashBalance.Sub(execAmount))
		if err != nil {
			return err
		}

		holding, err := s.repo.GetHolding(ctx, portfolioID, crypto.Symbol)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			err = s.repo.InsertHolding(ctx, portfolioID, model.HoldingBase{
				Symbol:           crypto.Symbol,
				Quantity:         execQty,
				AvgPurchasePrice: price,
				TotalCostBasis:   execAmount,
			})
			if err != nil {
				return err
			}
		} else {
			// средневзвешенная цена покупки
			newCostBasis := holding.TotalCostBasis.Add(execAmount)
			newQuantity := holding.Quantity.Add(execQty)
			err = s.repo.UpdateHolding(ctx, portfolioID, model.HoldingBase{
				Symbol:           crypto.Symbol,
				Quantity:         newQuantity,
				AvgPurchasePrice: newCostBasis.Div(newQuantity),
				TotalCostBasis:   newCostBasis,
			})
			if err != nil {
				return err
			}
		}

		return s.repo.InsertTransaction(ctx, portfolioID, txn)
	})
	if err != nil {
		if !isTradeValidationErr(err) {
			slog.Error("buy transaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return model.TradeResult{}, err
	}

	slog.Info(
		"buy executed",
		slog.String("rqID", rqID),
		slog.String("symbol", crypto.Symbol),
		slog.String("quantity", execQty.String()),
		slog.String("amountUSD", execAmount.String()),
	)

	summary, err := s.GetPortfolioSummary(ctx, portfolioID)
	if err != nil {
		return model.TradeResult{}, err
	}

	return model.TradeResult{Transaction: txn, Portfolio: summary}, nil
}

func (s *TradingService) ExecuteSell(ctx context.Context, portfolioID int64, symbol string, amountUSD, quantity *decimal.Decimal) (model.TradeResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ExecuteSell"

	slog.Debug("ExecuteSell start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("ExecuteSell finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	crypto, err := s.getTradableCrypto(ctx, symbol)
	if err != nil {
		return model.TradeResult{}, err
	}

	price := crypto.CurrentPrice

	execQty, execAmount, err := resolveTradeSize(amountUSD, quantity, price)
	if err != nil {
		return model.TradeResult{}, err
	}

	txn := model.Transaction{
		ID:           uuid.NewString(),
		Type:         model.TransactionTypeSell,
		Symbol:       crypto.Symbol,
		Name:         crypto.Name,
		IconURL:      crypto.IconURL,
		Quantity:     execQty,
		PricePerUnit: price,
		TotalAmount:  execAmount,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		portfolio, err := s.repo.GetPortfolioForUpdate(ctx, portfolioID)
		if err != nil {
			return err
		}

		holding, err := s.repo.GetHolding(ctx, portfolioID, crypto.Symbol)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrNoHolding
			}
			return err
		}

		if execQty.GreaterThan(holding.Quantity) {
			return service.ErrInsufficientHoldings
		}

		// реализованный P&L считаем до изменения позиции
		txn.RealizedGainLoss = price.Sub(holding.AvgPurchasePrice).Mul(execQty)

		err = s.repo.UpdatePortfolioCash(ctx, portfolioID, portfolio.CashBalance.Add(execAmount))
		if err != nil {
			return err
		}

		if execQty.Equal(holding.Quantity) {
			err = s.repo.DeleteHolding(ctx, portfolioID, crypto.Symbol)
		} else {
			costBasisSold := execQty.Div(holding.Quantity).Mul(holding.TotalCostBasis)
			err = s.repo.UpdateHolding(ctx, portfolioID, model.HoldingBase{
				Symbol:           crypto.Symbol,
				Quantity:         holding.Quantity.Sub(execQty),
				AvgPurchasePrice: holding.AvgPurchasePrice,
				TotalCostBasis:   holding.TotalCostBasis.Sub(costBasisSold),
			})
		}
		if err != nil {
			return err
		}

		return s.repo.InsertTransaction(ctx, portfolioID, txn)
	})
	if err != nil {
		if !isTradeValidationErr(err) {
			slog.Error("sell transaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return model.TradeResult{}, err
	}

	slog.Info(
		"sell executed",
		slog.String("rqID", rqID),
		slog.String("symbol", crypto.Symbol),
		slog.String("quantity", execQty.String()),
		slog.String("amountUSD", execAmount.String()),
		slog.String("realizedGainLoss", txn.RealizedGainLoss.String()),
	)

	summary, err := s.GetPortfolioSummary(ctx, portfolioID)
	if err != nil {
		return model.TradeResult{}, err
	}

	return model.TradeResult{Transaction: txn, Portfolio: summary}, nil
}

func (s *TradingService) getTradableCrypto(ctx context.Context, symbol string) (model.Crypto, error) {
	crypto, err := s.repo.GetCrypto(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Crypto{}, service.ErrNotFound
		}
		return model.Crypto{}, err
	}

	if !crypto.CurrentPrice.IsPositive() {
		return model.Crypto{}, service.ErrPriceUnavailable
	}

	return crypto, nil
}

func isTradeValidationErr(err error) bool {
	return errors.Is(err, service.ErrInsufficientFunds) ||
		errors.Is(err, service.ErrInsufficientHoldings) ||
		errors.Is(err, service.ErrNoHolding)
}
