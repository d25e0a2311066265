package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func historicalPricesKey(coingeckoID string, days int) string {
	return fmt.Sprintf("prices:hist:%s:%dd", coingeckoID, days)
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("prices:quote:%s", symbol)
}

// SetQuotes mirrors the latest quote per symbol. Only the price refresh job
// writes these keys.
func (r *RedisCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetQuotes start", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, quote := range quotes {
		quoteJson, err := json.Marshal(quote)
		if err != nil {
			slog.Error(
				"can't marshall quote in SetQuotes",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.String("symbol", quote.Symbol),
			)
			return errors.New("can't marshall quote")
		}
		pipe.Set(ctx, quoteKey(quote.Symbol), quoteJson, r.cfg.Cache.PricesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on redis pipeline Exec in SetQuotes", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetQuotes completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetHistoricalPrices start", slog.String("rqID", rqID))

	key := historicalPricesKey(coingeckoID, days)
	res, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		}
		return nil, err
	}

	var points []model.PricePoint
	err = json.Unmarshal([]byte(res), &points)
	if err != nil {
		slog.Error(
			"can't unmarshall price points in GetHistoricalPrices",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("key", key),
		)
		return nil, errors.New("can't unmarshall price points")
	}

	slog.Debug("GetHistoricalPrices finished", slog.String("rqID", rqID))

	return points, nil
}

func (r *RedisCache) SetHistoricalPrices(ctx context.Context, coingeckoID string, days int, points []model.PricePoint) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetHistoricalPrices start", slog.String("rqID", rqID))

	pointsJson, err := json.Marshal(points)
	if err != nil {
		slog.Error(
			"can't marshall price points in SetHistoricalPrices",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
		)
		return errors.New("can't marshall price points")
	}

	key := historicalPricesKey(coingeckoID, days)
	_, err = r.redis.Set(ctx, key, pointsJson, r.cfg.Cache.PricesExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return err
	}

	slog.Debug("SetHistoricalPrices completed", slog.String("rqID", rqID))

	return nil
}
