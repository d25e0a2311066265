package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TradingService interface {
	GetDefaultPortfolio(ctx context.Context) (model.Portfolio, error)
	ExecuteBuy(ctx context.Context, portfolioID int64, symbol string, amountUSD, quantity *decimal.Decimal) (model.TradeResult, error)
	ExecuteSell(ctx context.Context, portfolioID int64, symbol string, amountUSD, quantity *decimal.Decimal) (model.TradeResult, error)
	GetPortfolioSummary(ctx context.Context, portfolioID int64) (model.PortfolioSummary, error)
	GetHoldings(ctx context.Context, portfolioID int64) ([]model.Holding, error)
	GetPortfolioHistory(ctx context.Context, portfolioID int64, timeframe string) (model.PortfolioHistory, error)
	GetCryptocurrencies(ctx context.Context) ([]model.Crypto, error)
	GetCryptocurrencyDetail(ctx context.Context, symbol string) (model.CryptoDetail, error)
	GetMarketHistory(ctx context.Context, symbol, timeframe string) ([]model.PricePoint, error)
	GetCryptoNews(ctx context.Context, limit int) ([]model.NewsArticle, error)
	GetTransactions(ctx context.Context, portfolioID int64, txnType string, page int) ([]model.Transaction, error)
	GetUserAccount(ctx context.Context) (model.UserAccount, error)
	GenerateTransactionsReport(ctx context.Context, portfolioID int64) (fileBytes []byte, fileExtension string, err error)
}

type WSHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Controller struct {
	service TradingService
	ws      WSHandler
}

func NewController(service TradingService, ws WSHandler) *Controller {
	return &Controller{service: service, ws: ws}
}

func (ctrl *Controller) RegisterRoutes(r *gin.Engine) {
	r.Use(RqIDMiddleware(), LoggingMiddleware())

	api := r.Group("/api")
	{
		api.GET("/portfolio", ctrl.GetPortfolio)
		api.GET("/portfolio/history", ctrl.GetPortfolioHistory)
		api.POST("/trade/buy", ctrl.Buy)
		api.POST("/trade/sell", ctrl.Sell)
		api.GET("/cryptocurrencies", ctrl.GetCryptocurrencies)
		api.GET("/cryptocurrencies/:symbol", ctrl.GetCryptocurrencyDetail)
		api.GET("/market/history/:symbol", ctrl.GetMarketHistory)
		api.GET("/news", ctrl.GetNews)
		api.GET("/transactions", ctrl.GetTransactions)
		api.GET("/transactions/export", ctrl.ExportTransactions)
		api.GET("/user", ctrl.GetUser)
	}

	r.GET("/ws/prices", func(c *gin.Context) {
		ctrl.ws.ServeWS(c.Writer, c.Request)
	})
}

// handleServiceErr maps service errors to HTTP statuses for read endpoints.
// Trade endpoints have their own mapping, see tradeFailureMessage.
func (ctrl *Controller) handleServiceErr(c *gin.Context, err error) {
	rqID := utils.GetRequestIDFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidTimeframe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeframe"})
	case errors.Is(err, externalApi.ErrUpstream):
		slog.Error("upstream error", slog.String("rqID", rqID), slog.String("err", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data provider unavailable"})
	default:
		slog.Error("internal error", slog.String("rqID", rqID), slog.String("err", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// tradeFailureMessage returns a user-facing message for trade validation
// failures. These respond 200 with success=false rather than an error status.
func tradeFailureMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidTradeRequest):
		return "Must provide either amount_usd or quantity", true
	case errors.Is(err, service.ErrBelowMinTradeAmount):
		return "Minimum trade amount is $0.01", true
	case errors.Is(err, service.ErrInsufficientFunds):
		return "Insufficient funds", true
	case errors.Is(err, service.ErrNoHolding):
		return "No holdings of this cryptocurrency", true
	case errors.Is(err, service.ErrInsufficientHoldings):
		return "Insufficient holdings", true
	case errors.Is(err, service.ErrNotFound):
		return "Cryptocurrency not found", true
	case errors.Is(err, service.ErrPriceUnavailable):
		return "Price is currently unavailable", true
	default:
		return "", false
	}
}
