package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultNewsLimit = 20

func (ctrl *Controller) GetCryptocurrencies(c *gin.Context) {
	cryptos, err := ctrl.service.GetCryptocurrencies(c.Request.Context())
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	views := make([]cryptoView, 0, len(cryptos))
	for _, crypto := range cryptos {
		views = append(views, toCryptoView(crypto))
	}

	c.JSON(http.StatusOK, gin.H{"cryptocurrencies": views})
}

func (ctrl *Controller) GetCryptocurrencyDetail(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	detail, err := ctrl.service.GetCryptocurrencyDetail(c.Request.Context(), symbol)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, cryptoDetailView{
		cryptoView:     toCryptoView(detail.Crypto),
		PriceHistory7d: detail.PriceHistory7d,
	})
}

func (ctrl *Controller) GetMarketHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	timeframe := c.DefaultQuery("timeframe", "1M")

	points, err := ctrl.service.GetMarketHistory(c.Request.Context(), symbol, timeframe)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"history":   points,
	})
}

func (ctrl *Controller) GetNews(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultNewsLimit)))
	if err != nil || limit < 1 {
		limit = defaultNewsLimit
	}

	articles, err := ctrl.service.GetCryptoNews(c.Request.Context(), limit)
	if err != nil {
		ctrl.handleServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"news": articles})
}
