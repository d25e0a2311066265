package finnhubApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model/finnhubModel"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/go-resty/resty/v2"
)

type FinnhubApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *FinnhubApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Finnhub.Url)

	if cfg.API.Finnhub.Token != "" {
		client.SetQueryParam("token", cfg.API.Finnhub.Token)
	}

	return &FinnhubApi{client: client}
}

func (a *FinnhubApi) GetCryptoNews(ctx context.Context, limit int) ([]model.NewsArticle, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/news"
	params := map[string]string{
		"category": "crypto",
	}

	slog.Debug("start FinnhubApi.GetCryptoNews request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing FinnhubApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.IsError() {
		slog.Error("FinnhubApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: finnhub status %d", externalApi.ErrUpstream, resp.StatusCode())
	}

	var rawArticles []finnhubModel.RawArticle
	err = json.Unmarshal(resp.Body(), &rawArticles)
	if err != nil {
		slog.Error("can't unmarshall response into []finnhubModel.RawArticle", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if limit > 0 && len(rawArticles) > limit {
		rawArticles = rawArticles[:limit]
	}

	articles := make([]model.NewsArticle, 0, len(rawArticles))
	for _, raw := range rawArticles {
		articles = append(articles, model.NewsArticle{
			ID:       raw.ID,
			Datetime: raw.Datetime,
			Headline: raw.Headline,
			Image:    raw.Image,
			Summary:  raw.Summary,
			URL:      raw.URL,
			Source:   raw.Source,
		})
	}

	slog.Debug("FinnhubApi.GetCryptoNews request complete", slog.String("rqID", rqID))

	return articles, nil
}
