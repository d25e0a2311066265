package tradingService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/data/repository"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
)

const transactionsPageSize = 20

// marketTimeframes are the chart ranges the market data provider supports.
var marketTimeframes = map[string]struct{}{
	"1D": {}, "5D": {}, "1M": {}, "3M": {}, "6M": {},
	"YTD": {}, "1Y": {}, "5Y": {}, "ALL": {},
}

func (s *TradingService) GetCryptocurrencies(ctx context.Context) ([]model.Crypto, error) {
	return s.repo.GetActiveCryptos(ctx)
}

func (s *TradingService) GetCryptocurrencyDetail(ctx context.Context, symbol string) (model.CryptoDetail, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetCryptocurrencyDetail"

	slog.Debug("GetCryptocurrencyDetail start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	crypto, err := s.repo.GetCrypto(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CryptoDetail{}, service.ErrNotFound
		}
		return model.CryptoDetail{}, err
	}

	history, err := s.getHistoricalPricesCached(ctx, crypto.CoingeckoID, 7)
	if err != nil {
		// карточка полезна и без спарклайна
		slog.Error("can't get 7d price history", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("symbol", symbol))
		history = nil
	}

	slog.Debug("GetCryptocurrencyDetail finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	return model.CryptoDetail{Crypto: crypto, PriceHistory7d: history}, nil
}

func (s *TradingService) GetMarketHistory(ctx context.Context, symbol, timeframe string) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetMarketHistory"

	slog.Debug("GetMarketHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("timeframe", timeframe))

	if _, ok := marketTimeframes[timeframe]; !ok {
		return nil, service.ErrInvalidTimeframe
	}

	crypto, err := s.repo.GetCrypto(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}

	points, err := s.yahooApi.GetPriceHistory(ctx, crypto.YahooSymbol, timeframe)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}

	slog.Debug("GetMarketHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("points", len(points)))

	return points, nil
}

func (s *TradingService) GetCryptoNews(ctx context.Context, limit int) ([]model.NewsArticle, error) {
	return s.finnhubApi.GetCryptoNews(ctx, limit)
}

func (s *TradingService) GetTransactions(ctx context.Context, portfolioID int64, txnType string, page int) ([]model.Transaction, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * transactionsPageSize
	return s.repo.GetTransactions(ctx, portfolioID, txnType, transactionsPageSize, offset)
}

func (s *TradingService) GetUserAccount(ctx context.Context) (model.UserAccount, error) {
	return s.repo.GetDemoUser(ctx)
}

// GenerateTransactionsReport builds an export file over the whole trade log.
func (s *TradingService) GenerateTransactionsReport(ctx context.Context, portfolioID int64) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GenerateTransactionsReport"

	slog.Debug("GenerateTransactionsReport start", slog.String("rqID", rqID), slog.String("op", op))

	txns, err := s.repo.GetTransactionsSince(ctx, portfolioID, time.Time{})
	if err != nil {
		return nil, "", err
	}

	fileBytes, fileExtension, err = s.reportGenerator.Generate(ctx, txns)
	if err != nil {
		slog.Error("report generation failed", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		return nil, "", err
	}

	slog.Debug("GenerateTransactionsReport finished", slog.String("rqID", rqID), slog.String("op", op))

	return fileBytes, fileExtension, nil
}

// RefreshPrices pulls fresh quotes for every active asset, persists them and
// pushes the update to websocket subscribers. Runs on a schedule.
func (s *TradingService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.RefreshPrices"

	slog.Debug("RefreshPrices start", slog.String("rqID", rqID), slog.String("op", op))

	cryptos, err := s.repo.GetActiveCryptos(ctx)
	if err != nil {
		return err
	}

	if len(cryptos) == 0 {
		return nil
	}

	quotes, err := s.coingeckoApi.GetCurrentQuotes(ctx, cryptos)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	updated := make([]model.Quote, 0, len(quotes))

	for _, crypto := range cryptos {
		quote, ok := quotes[crypto.CoingeckoID]
		if !ok {
			slog.Warn("no quote for asset", slog.String("rqID", rqID), slog.String("symbol", crypto.Symbol))
			continue
		}
		quote.Symbol = crypto.Symbol

		err = s.repo.UpdateCryptoQuote(ctx, quote, now)
		if err != nil {
			slog.Error("can't update quote", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("symbol", crypto.Symbol))
			continue
		}

		err = s.repo.InsertPriceHistory(ctx, crypto.Symbol, quote.Price, now)
		if err != nil {
			slog.Error("can't insert price history", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("symbol", crypto.Symbol))
		}

		updated = append(updated, quote)
	}

	if len(updated) > 0 {
		// зеркалим котировки в redis для внешних потребителей
		if err := s.cache.SetQuotes(ctx, updated); err != nil {
			slog.Error("can't set quotes to cache", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		}

		s.broadcaster.BroadcastPriceUpdate(model.PriceUpdate{Quotes: updated, Timestamp: now})
	}

	slog.Debug("RefreshPrices finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("updated", len(updated)))

	return nil
}
