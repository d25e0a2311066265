package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/data/repository"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/converter/dbConverter"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model/dbModel"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/shopspring/decimal"
)

func (r *Postgres) GetCrypto(ctx context.Context, symbol string) (crypto model.Crypto, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetCrypto"
	query := `
		SELECT symbol, name, coingecko_id, yahoo_symbol, icon_url, category, is_active,
			current_price, price_change_24h, volume_24h, market_cap, last_updated
		FROM cryptocurrencies
		WHERE symbol = $1
		`

	slog.Debug("GetCrypto start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetCrypto failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetCrypto completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbCrypto := dbModel.Crypto{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, symbol).StructScan(&dbCrypto)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Crypto{}, repository.ErrNotFound
		}
		return model.Crypto{}, err
	}

	return dbConverter.ConvertCrypto(dbCrypto), nil
}

func (r *Postgres) GetActiveCryptos(ctx context.Context) (cryptos []model.Crypto, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetActiveCryptos"
	query := `
		SELECT symbol, name, coingecko_id, yahoo_symbol, icon_url, category, is_active,
			current_price, price_change_24h, volume_24h, market_cap, last_updated
		FROM cryptocurrencies
		WHERE is_active = true
		ORDER BY symbol
		`

	slog.Debug("GetActiveCryptos start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetActiveCryptos failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetActiveCryptos completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbCrypto dbModel.Crypto
		err = rows.StructScan(&dbCrypto)
		if err != nil {
			return nil, err
		}
		cryptos = append(cryptos, dbConverter.ConvertCrypto(dbCrypto))
	}

	return cryptos, nil
}

func (r *Postgres) UpdateCryptoQuote(ctx context.Context, quote model.Quote, updatedAt time.Time) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateCryptoQuote"
	query := `
		UPDATE cryptocurrencies
		SET
			current_price = $1,
			price_change_24h = $2,
			volume_24h = $3,
			market_cap = $4,
			last_updated = $5
		WHERE symbol = $6
		`

	slog.Debug("UpdateCryptoQuote start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateCryptoQuote failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateCryptoQuote completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, quote.Price, quote.Change24h, quote.Volume24h, quote.MarketCap, updatedAt, quote.Symbol)
	return err
}

func (r *Postgres) InsertPriceHistory(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPriceHistory"
	query := `INSERT INTO price_history(symbol, price, dt_create) VALUES ($1, $2, $3)`

	slog.Debug("InsertPriceHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertPriceHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertPriceHistory completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, symbol, price, ts)
	return err
}
