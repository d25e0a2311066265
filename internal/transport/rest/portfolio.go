package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type tradeRequest struct {
	Symbol    string           `json:"symbol" binding:"required"`
	AmountUSD *decimal.Decimal `json:"amount_usd"`
	Quantity  *decimal.Decimal `json:"quantity"`
}

func (ctrl *Controller) GetPortfolio(c *gin.Context) {
	ctx := c.Request.Context()

	portfolio, err := ctrl.service.GetDefaultPortfolio(ctx)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	summary, err := ctrl.service.GetPortfolioSummary(ctx, portfolio.PortfolioID)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	holdings, err := ctrl.service.GetHoldings(ctx, portfolio.PortfolioID)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":  toSummaryView(summary),
		"holdings": toHoldingViews(holdings),
	})
}

func (ctrl *Controller) GetPortfolioHistory(c *gin.Context) {
	ctx := c.Request.Context()

	timeframe := c.DefaultQuery("timeframe", "1M")

	portfolio, err := ctrl.service.GetDefaultPortfolio(ctx)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	history, err := ctrl.service.GetPortfolioHistory(ctx, portfolio.PortfolioID, timeframe)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timeframe": history.Timeframe,
		"history":   history.Points,
	})
}

func (ctrl *Controller) Buy(c *gin.Context) {
	ctrl.executeTrade(c, ctrl.service.ExecuteBuy)
}

func (ctrl *Controller) Sell(c *gin.Context) {
	ctrl.executeTrade(c, ctrl.service.ExecuteSell)
}

type tradeFn func(ctx context.Context, portfolioID int64, symbol string, amountUSD, quantity *decimal.Decimal) (model.TradeResult, error)

func (ctrl *Controller) executeTrade(c *gin.Context, trade tradeFn) {
	ctx := c.Request.Context()

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := ctrl.service.GetDefaultPortfolio(ctx)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	result, err := trade(ctx, portfolio.PortfolioID, req.Symbol, req.AmountUSD, req.Quantity)
	if err != nil {
		if msg, ok := tradeFailureMessage(err); ok {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
			return
		}
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transaction": toTransactionView(result.Transaction),
		"portfolio":   toSummaryView(result.Portfolio),
	})
}

func (ctrl *Controller) GetTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	txnType := c.Query("type")
	if txnType != "" && txnType != model.TransactionTypeBuy && txnType != model.TransactionTypeSell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be BUY or SELL"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	portfolio, err := ctrl.service.GetDefaultPortfolio(ctx)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	txns, err := ctrl.service.GetTransactions(ctx, portfolio.PortfolioID, txnType, page)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	views := make([]transactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, toTransactionView(txn))
	}

	c.JSON(http.StatusOK, gin.H{
		"page":         page,
		"transactions": views,
	})
}

func (ctrl *Controller) ExportTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	portfolio, err := ctrl.service.GetDefaultPortfolio(ctx)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	fileBytes, fileExtension, err := ctrl.service.GenerateTransactionsReport(ctx, portfolio.PortfolioID)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s%s", time.Now().UTC().Format("2006-01-02"), fileExtension)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fileBytes)
}

func (ctrl *Controller) GetUser(c *gin.Context) {
	user, err := ctrl.service.GetUserAccount(c.Request.Context())
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserView(user))
}
