package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model/yahooModel"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// rangeParams maps a chart timeframe to Yahoo Finance range/interval params.
var rangeParams = map[string][2]string{
	"1D":  {"1d", "15m"},
	"5D":  {"5d", "60m"},
	"1M":  {"1mo", "1d"},
	"3M":  {"3mo", "1d"},
	"6M":  {"6mo", "1d"},
	"YTD": {"ytd", "1d"},
	"1Y":  {"1y", "1d"},
	"5Y":  {"5y", "1wk"},
	"ALL": {"max", "1mo"},
}

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Yahoo.Url).
		SetHeader("User-Agent", "Mozilla/5.0")

	return &YahooApi{client: client}
}

func (a *YahooApi) GetPriceHistory(ctx context.Context, yahooSymbol, timeframe string) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	rp, ok := rangeParams[timeframe]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %s", timeframe)
	}

	url := fmt.Sprintf("/v8/finance/chart/%s", yahooSymbol)
	params := map[string]string{
		"range":    rp[0],
		"interval": rp[1],
	}

	slog.Debug("start YahooApi.GetPriceHistory request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() == 404 {
		return nil, externalApi.ErrNotFound
	}

	if resp.IsError() {
		slog.Error("YahooApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: yahoo status %d", externalApi.ErrUpstream, resp.StatusCode())
	}

	rawChart := yahooModel.RawChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.RawChart", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if rawChart.Chart.Error != nil {
		slog.Error("YahooApi chart error", slog.String("code", rawChart.Chart.Error.Code), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: yahoo chart error %s", externalApi.ErrUpstream, rawChart.Chart.Error.Code)
	}

	if len(rawChart.Chart.Result) == 0 || len(rawChart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, externalApi.ErrNotFound
	}

	result := rawChart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // пропускаем пустые свечи
		}
		points = append(points, model.PricePoint{
			Timestamp: time.Unix(ts, 0).UTC(),
			Price:     decimal.NewFromFloat(*closes[i]),
		})
	}

	slog.Debug("YahooApi.GetPriceHistory request complete", slog.String("rqID", rqID))

	return points, nil
}
