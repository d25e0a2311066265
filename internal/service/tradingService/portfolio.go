package tradingService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/data/repository"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/shopspring/decimal"
)

// hourlyChartSpan is the widest span still charted with hourly buckets.
const hourlyChartSpan = 5 * 24 * time.Hour

var hundred = decimal.NewFromInt(100)

func (s *TradingService) GetDefaultPortfolio(ctx context.Context) (model.Portfolio, error) {
	return s.repo.GetDefaultPortfolio(ctx)
}

func (s *TradingService) GetHoldings(ctx context.Context, portfolioID int64) ([]model.Holding, error) {
	return s.repo.GetHoldings(ctx, portfolioID)
}

func (s *TradingService) GetPortfolioSummary(ctx context.Context, portfolioID int64) (model.PortfolioSummary, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetPortfolioSummary"

	slog.Debug("GetPortfolioSummary start", slog.String("rqID", rqID), slog.String("op", op))

	portfolio, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PortfolioSummary{}, service.ErrNotFound
		}
		return model.PortfolioSummary{}, err
	}

	holdings, err := s.repo.GetHoldings(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	holdingsValue := decimal.Zero
	for _, h := range holdings {
		holdingsValue = holdingsValue.Add(h.CurrentValue)
	}

	totalValue := portfolio.CashBalance.Add(holdingsValue)
	gainLoss := totalValue.Sub(portfolio.InitialCash)

	gainLossPct := decimal.Zero
	if portfolio.InitialCash.IsPositive() {
		gainLossPct = gainLoss.Div(portfolio.InitialCash).Mul(hundred)
	}

	slog.Debug("GetPortfolioSummary finished", slog.String("rqID", rqID), slog.String("op", op))

	return model.PortfolioSummary{
		CashBalance:         portfolio.CashBalance,
		TotalHoldingsValue:  holdingsValue,
		TotalPortfolioValue: totalValue,
		InitialInvestment:   portfolio.InitialCash,
		TotalGainLoss:       gainLoss,
		TotalGainLossPct:    gainLossPct,
		LastUpdated:         time.Now().UTC(),
	}, nil
}

// GetPortfolioHistory reconstructs the portfolio value curve for a timeframe
// by replaying transactions over historical prices. The cash component uses
// the current balance as an approximation for past points.
func (s *TradingService) GetPortfolioHistory(ctx context.Context, portfolioID int64, timeframe string) (model.PortfolioHistory, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetPortfolioHistory"

	slog.Debug("GetPortfolioHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("timeframe", timeframe))

	now := time.Now().UTC()

	start, err := timeframeStart(timeframe, now)
	if err != nil {
		return model.PortfolioHistory{}, err
	}

	portfolio, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PortfolioHistory{}, service.ErrNotFound
		}
		return model.PortfolioHistory{}, err
	}

	// график не имеет смысла раньше появления портфеля
	inception := portfolio.CreatedAt
	firstTxnAt, err := s.repo.GetFirstTransactionTime(ctx, portfolioID)
	if err == nil && firstTxnAt.Before(inception) {
		inception = firstTxnAt
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.PortfolioHistory{}, err
	}

	if inception.After(start) {
		start = inception
	}

	step := 24 * time.Hour
	if now.Sub(start) <= hourlyChartSpan {
		step = time.Hour
	}

	txns, err := s.repo.GetTransactionsSince(ctx, portfolioID, time.Time{})
	if err != nil {
		return model.PortfolioHistory{}, err
	}

	priceSeries, err := s.loadPriceSeries(ctx, txns, now.Sub(start))
	if err != nil {
		return model.PortfolioHistory{}, err
	}

	points := make([]model.ValuePoint, 0, int(now.Sub(start)/step)+1)
	txnIdx := 0
	quantities := make(map[string]decimal.Decimal)

	for t := start; !t.After(now); t = t.Add(step) {
		for txnIdx < len(txns) && !txns[txnIdx].CreatedAt.After(t) {
			txn := txns[txnIdx]
			switch txn.Type {
			case model.TransactionTypeBuy:
				quantities[txn.Symbol] = quantities[txn.Symbol].Add(txn.Quantity)
			case model.TransactionTypeSell:
				quantities[txn.Symbol] = quantities[txn.Symbol].Sub(txn.Quantity)
			}
			txnIdx++
		}

		value := portfolio.CashBalance
		for symbol, qty := range quantities {
			if !qty.IsPositive() {
				continue
			}
			price, ok := priceAt(priceSeries[symbol], t)
			if !ok {
				continue
			}
			value = value.Add(qty.Mul(price))
		}

		points = append(points, model.ValuePoint{Timestamp: t, Value: value})
	}

	slog.Debug("GetPortfolioHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("points", len(points)))

	return model.PortfolioHistory{Timeframe: timeframe, Points: points}, nil
}

func timeframeStart(timeframe string, now time.Time) (time.Time, error) {
	switch timeframe {
	case "1D":
		return now.AddDate(0, 0, -1), nil
	case "5D":
		return now.AddDate(0, 0, -5), nil
	case "1M":
		return now.AddDate(0, -1, 0), nil
	case "3M":
		return now.AddDate(0, -3, 0), nil
	case "6M":
		return now.AddDate(0, -6, 0), nil
	case "YTD":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, service.ErrInvalidTimeframe
	}
}

// loadPriceSeries fetches historical prices for every symbol that appears in
// the transaction log, covering at least the requested span.
func (s *TradingService) loadPriceSeries(ctx context.Context, txns []model.Transaction, span time.Duration) (map[string][]model.PricePoint, error) {
	symbols := make(map[string]struct{})
	for _, txn := range txns {
		symbols[txn.Symbol] = struct{}{}
	}

	days := int(span/(24*time.Hour)) + 1

	series := make(map[string][]model.PricePoint, len(symbols))
	for symbol := range symbols {
		crypto, err := s.repo.GetCrypto(ctx, symbol)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // актив сняли с листинга — пропускаем
			}
			return nil, err
		}

		points, err := s.getHistoricalPricesCached(ctx, crypto.CoingeckoID, days)
		if err != nil {
			return nil, err
		}
		series[symbol] = points
	}

	return series, nil
}

// priceAt returns the last known price at or before t (forward fill). When t
// predates the series, the earliest point is used.
func priceAt(points []model.PricePoint, t time.Time) (decimal.Decimal, bool) {
	if len(points) == 0 {
		return decimal.Decimal{}, false
	}

	price := points[0].Price
	for _, p := range points {
		if p.Timestamp.After(t) {
			break
		}
		price = p.Price
	}

	return price, true
}

func (s *TradingService) getHistoricalPricesCached(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	points, err := s.cache.GetHistoricalPrices(ctx, coingeckoID, days)
	if err == nil && len(points) > 0 {
		return points, nil
	}

	points, err = s.coingeckoApi.GetHistoricalPrices(ctx, coingeckoID, days)
	if err != nil {
		return nil, err
	}

	go func() {
		err := s.cache.SetHistoricalPrices(context.WithoutCancel(ctx), coingeckoID, days, points)
		if err != nil {
			slog.Error("can't set historical prices to cache", slog.String("err", err.Error()), slog.String("rqID", rqID))
		}
	}()

	return points, nil
}
