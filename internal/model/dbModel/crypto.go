package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Crypto struct {
	Symbol         string              `db:"symbol"`
	Name           string              `db:"name"`
	CoingeckoID    string              `db:"coingecko_id"`
	YahooSymbol    sql.NullString      `db:"yahoo_symbol"`
	IconURL        sql.NullString      `db:"icon_url"`
	Category       string              `db:"category"`
	IsActive       bool                `db:"is_active"`
	CurrentPrice   decimal.NullDecimal `db:"current_price"`
	PriceChange24h decimal.NullDecimal `db:"price_change_24h"`
	Volume24h      decimal.NullDecimal `db:"volume_24h"`
	MarketCap      decimal.NullDecimal `db:"market_cap"`
	LastUpdated    sql.NullTime        `db:"last_updated"`
}

type User struct {
	UserID        int64          `db:"user_id"`
	Username      string         `db:"username"`
	Email         string         `db:"email"`
	FirstName     string         `db:"first_name"`
	LastName      string         `db:"last_name"`
	DateOfBirth   sql.NullString `db:"date_of_birth"`
	Address       sql.NullString `db:"address"`
	City          sql.NullString `db:"city"`
	State         sql.NullString `db:"state"`
	ZipCode       sql.NullString `db:"zip_code"`
	Country       sql.NullString `db:"country"`
	AccountNumber sql.NullString `db:"account_number"`
	AccountType   string         `db:"account_type"`
}

type PricePoint struct {
	Symbol    string          `db:"symbol"`
	Price     decimal.Decimal `db:"price"`
	Timestamp time.Time       `db:"dt_create"`
}
