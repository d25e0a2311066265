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

func (r *Postgres) GetDefaultPortfolio(ctx context.Context) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetDefaultPortfolio"
	query := `
		SELECT portfolio_id, user_id, cash_balance, initial_cash, dt_create
		FROM portfolios
		ORDER BY portfolio_id
		LIMIT 1
		`

	slog.Debug("GetDefaultPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetDefaultPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDefaultPortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query).StructScan(&dbPortfolio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, repository.ErrNotFound
		}
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio), nil
}

// GetPortfolioForUpdate locks the portfolio row until the surrounding
// transaction completes, serializing concurrent trades per portfolio.
func (r *Postgres) GetPortfolioForUpdate(ctx context.Context, portfolioID int64) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolioForUpdate"
	query := `
		SELECT portfolio_id, user_id, cash_balance, initial_cash, dt_create
		FROM portfolios
		WHERE portfolio_id = $1
		FOR UPDATE
		`

	slog.Debug("GetPortfolioForUpdate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolioForUpdate failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolioForUpdate completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolioID).StructScan(&dbPortfolio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, repository.ErrNotFound
		}
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio), nil
}

func (r *Postgres) GetPortfolio(ctx context.Context, portfolioID int64) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolio"
	query := `
		SELECT portfolio_id, user_id, cash_balance, initial_cash, dt_create
		FROM portfolios
		WHERE portfolio_id = $1
		`

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolioID).StructScan(&dbPortfolio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, repository.ErrNotFound
		}
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio), nil
}

func (r *Postgres) UpdatePortfolioCash(ctx context.Context, portfolioID int64, cashBalance decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdatePortfolioCash"
	query := `UPDATE portfolios SET cash_balance = $1 WHERE portfolio_id = $2`

	slog.Debug("UpdatePortfolioCash start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdatePortfolioCash failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdatePortfolioCash completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, cashBalance, portfolioID)
	return err
}

func (r *Postgres) GetHolding(ctx context.Context, portfolioID int64, symbol string) (holding model.HoldingBase, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHolding"
	query := `
		SELECT portfolio_id, symbol, quantity, avg_purchase_price, total_cost_basis
		FROM holdings
		WHERE portfolio_id = $1
		AND symbol = $2
		`

	slog.Debug("GetHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbHolding := dbModel.Holding{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolioID, symbol).StructScan(&dbHolding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.HoldingBase{}, repository.ErrNotFound
		}
		return model.HoldingBase{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

func (r *Postgres) GetHoldings(ctx context.Context, portfolioID int64) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldings"
	query := `
		SELECT h.portfolio_id, h.symbol, h.quantity, h.avg_purchase_price, h.total_cost_basis,
			c.name, COALESCE(c.icon_url, '') AS icon_url, COALESCE(c.current_price, 0) AS current_price
		FROM holdings h
		JOIN cryptocurrencies c USING(symbol)
		WHERE h.portfolio_id = $1
		ORDER BY h.symbol
		`

	slog.Debug("GetHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, portfolioID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbHolding dbModel.HoldingWithCrypto
		err = rows.StructScan(&dbHolding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHoldingWithCrypto(dbHolding))
	}

	return holdings, nil
}

func (r *Postgres) InsertHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertHolding"
	query := `
		INSERT INTO holdings(portfolio_id, symbol, quantity, avg_purchase_price, total_cost_basis)
		VALUES ($1, $2, $3, $4, $5)
		`

	slog.Debug("InsertHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, portfolioID, holding.Symbol, holding.Quantity, holding.AvgPurchasePrice, holding.TotalCostBasis)
	return err
}

func (r *Postgres) UpdateHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateHolding"
	query := `
		UPDATE holdings
		SET
			quantity = $1,
			avg_purchase_price = $2,
			total_cost_basis = $3
		WHERE
			portfolio_id = $4
			AND symbol = $5
		`

	slog.Debug("UpdateHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, holding.Quantity, holding.AvgPurchasePrice, holding.TotalCostBasis, portfolioID, holding.Symbol)
	return err
}

func (r *Postgres) DeleteHolding(ctx context.Context, portfolioID int64, symbol string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHolding"
	query := `
		DELETE FROM holdings
		WHERE
			portfolio_id = $1
			AND symbol = $2
		`

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeleteHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, portfolioID, symbol)
	return err
}

func (r *Postgres) InsertTransaction(ctx context.Context, portfolioID int64, txn model.Transaction) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertTransaction"
	query := `
		INSERT INTO transactions(transaction_id, portfolio_id, symbol, transaction_type, quantity, price_per_unit, total_amount, realized_gain_loss, dt_create)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

	slog.Debug(
		"InsertTransaction start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int64("portfolioID", portfolioID),
		slog.Any("transaction", txn),
		slog.String("query", query),
	)
	defer func() {
		if err != nil {
			slog.Error("InsertTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		txn.ID,
		portfolioID,
		txn.Symbol,
		txn.Type,
		txn.Quantity,
		txn.PricePerUnit,
		txn.TotalAmount,
		txn.RealizedGainLoss,
		txn.CreatedAt,
	)
	return err
}

func (r *Postgres) getTransactions(ctx context.Context, query string, args ...any) (txns []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.getTransactions"

	slog.Debug("getTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("getTransactions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("getTransactions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbTxn dbModel.Transaction
		err = rows.StructScan(&dbTxn)
		if err != nil {
			return nil, err
		}
		txns = append(txns, dbConverter.ConvertTransaction(dbTxn))
	}

	return txns, nil
}

func (r *Postgres) GetTransactions(ctx context.Context, portfolioID int64, txnType string, limit, offset int) ([]model.Transaction, error) {
	query := `
		SELECT t.transaction_id, t.portfolio_id, t.symbol, t.transaction_type, t.quantity,
			t.price_per_unit, t.total_amount, t.realized_gain_loss, t.dt_create,
			c.name, COALESCE(c.icon_url, '') AS icon_url
		FROM transactions t
		JOIN cryptocurrencies c USING(symbol)
		WHERE t.portfolio_id = $1
		AND ($2 = '' OR t.transaction_type = $2)
		ORDER BY t.dt_create DESC
		LIMIT $3
		OFFSET $4
		`

	return r.getTransactions(ctx, query, portfolioID, txnType, limit, offset)
}

func (r *Postgres) GetTransactionsSince(ctx context.Context, portfolioID int64, since time.Time) ([]model.Transaction, error) {
	query := `
		SELECT t.transaction_id, t.portfolio_id, t.symbol, t.transaction_type, t.quantity,
			t.price_per_unit, t.total_amount, t.realized_gain_loss, t.dt_create,
			c.name, COALESCE(c.icon_url, '') AS icon_url
		FROM transactions t
		JOIN cryptocurrencies c USING(symbol)
		WHERE t.portfolio_id = $1
		AND t.dt_create >= $2
		ORDER BY t.dt_create
		`

	return r.getTransactions(ctx, query, portfolioID, since)
}

func (r *Postgres) GetFirstTransactionTime(ctx context.Context, portfolioID int64) (ts time.Time, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetFirstTransactionTime"
	query := `
		SELECT dt_create FROM transactions
		WHERE portfolio_id = $1
		ORDER BY dt_create
		LIMIT 1
		`

	slog.Debug("GetFirstTransactionTime start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetFirstTransactionTime failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetFirstTransactionTime completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolioID).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, repository.ErrNotFound
		}
		return time.Time{}, err
	}

	return ts, nil
}

func (r *Postgres) GetDemoUser(ctx context.Context) (user model.UserAccount, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetDemoUser"
	query := `
		SELECT user_id, username, email, first_name, last_name, date_of_birth,
			address, city, state, zip_code, country, account_number, account_type
		FROM users
		ORDER BY user_id
		LIMIT 1
		`

	slog.Debug("GetDemoUser start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetDemoUser failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDemoUser completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbUser := dbModel.User{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query).StructScan(&dbUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserAccount{}, repository.ErrNotFound
		}
		return model.UserAccount{}, err
	}

	return dbConverter.ConvertUser(dbUser), nil
}
