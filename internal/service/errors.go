package service

import "errors"

var (
	ErrNotFound             = errors.New("error not found")
	ErrInvalidTradeRequest  = errors.New("error must provide either amount or quantity")
	ErrBelowMinTradeAmount  = errors.New("error trade amount below minimum")
	ErrInsufficientFunds    = errors.New("error insufficient funds")
	ErrNoHolding            = errors.New("error no holding for this asset")
	ErrInsufficientHoldings = errors.New("error insufficient holdings")
	ErrPriceUnavailable     = errors.New("error price unavailable")
	ErrInvalidTimeframe     = errors.New("error invalid timeframe")
)
