package coingeckoApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model/coingeckoModel"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type CoingeckoApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *CoingeckoApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Coingecko.Url)

	if cfg.API.Coingecko.Key != "" {
		client.SetHeader("X-CG-API-KEY", cfg.API.Coingecko.Key)
	}

	return &CoingeckoApi{client: client}
}

// GetCurrentQuotes fetches market data for all passed cryptos in one batch
// request. The result is keyed by coingecko id; cryptos missing from the
// response are absent from the map.
func (a *CoingeckoApi) GetCurrentQuotes(ctx context.Context, cryptos []model.Crypto) (map[string]model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/simple/price"

	ids := make([]string, 0, len(cryptos))
	for _, crypto := range cryptos {
		ids = append(ids, crypto.CoingeckoID)
	}

	params := map[string]string{
		"ids":                 strings.Join(ids, ","),
		"vs_currencies":       "usd",
		"include_24hr_change": "true",
		"include_24hr_vol":    "true",
		"include_market_cap":  "true",
	}

	slog.Debug("start CoingeckoApi.GetCurrentQuotes request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing CoingeckoApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.IsError() {
		slog.Error("CoingeckoApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: coingecko status %d", externalApi.ErrUpstream, resp.StatusCode())
	}

	rawPrices := coingeckoModel.RawSimplePrice{}
	err = json.Unmarshal(resp.Body(), &rawPrices)
	if err != nil {
		slog.Error("can't unmarshall response into coingeckoModel.RawSimplePrice", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	res := make(map[string]model.Quote, len(cryptos))
	for _, crypto := range cryptos {
		data, ok := rawPrices[crypto.CoingeckoID]
		if !ok {
			continue
		}

		price, ok := data["usd"]
		if !ok {
			continue
		}

		res[crypto.CoingeckoID] = model.Quote{
			Symbol:    crypto.Symbol,
			Price:     decimal.NewFromFloat(price),
			Change24h: decimal.NewFromFloat(data["usd_24h_change"]),
			Volume24h: decimal.NewFromFloat(data["usd_24h_vol"]),
			MarketCap: decimal.NewFromFloat(data["usd_market_cap"]),
		}
	}

	slog.Debug("CoingeckoApi.GetCurrentQuotes request complete", slog.String("rqID", rqID))

	return res, nil
}

func (a *CoingeckoApi) GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/coins/%s/market_chart", coingeckoID)
	params := map[string]string{
		"vs_currency": "usd",
		"days":        strconv.Itoa(days),
	}

	slog.Debug("start CoingeckoApi.GetHistoricalPrices request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing CoingeckoApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() == 404 {
		return nil, externalApi.ErrNotFound
	}

	if resp.IsError() {
		slog.Error("CoingeckoApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: coingecko status %d", externalApi.ErrUpstream, resp.StatusCode())
	}

	rawChart := coingeckoModel.RawMarketChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into coingeckoModel.RawMarketChart", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	points := make([]model.PricePoint, 0, len(rawChart.Prices))
	for _, pair := range rawChart.Prices {
		if len(pair) != 2 {
			continue
		}
		points = append(points, model.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])).UTC(),
			Price:     decimal.NewFromFloat(pair[1]),
		})
	}

	slog.Debug("CoingeckoApi.GetHistoricalPrices request complete", slog.String("rqID", rqID))

	return points, nil
}
