package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Crypto struct {
	Symbol         string
	Name           string
	CoingeckoID    string
	YahooSymbol    string
	IconURL        string
	Category       string
	IsActive       bool
	CurrentPrice   decimal.Decimal
	PriceChange24h decimal.Decimal
	Volume24h      decimal.Decimal
	MarketCap      decimal.Decimal
	LastUpdated    time.Time
}

// Quote is a single market data snapshot from the price feed.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change_24h"`
	Volume24h decimal.Decimal `json:"volume_24h"`
	MarketCap decimal.Decimal `json:"market_cap"`
}

type CryptoDetail struct {
	Crypto
	PriceHistory7d []PricePoint
}

type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

type PriceUpdate struct {
	Quotes    []Quote   `json:"cryptocurrencies"`
	Timestamp time.Time `json:"timestamp"`
}
