package rest

import (
	"log/slog"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/gin-gonic/gin"
)

// RqIDMiddleware puts a request id into the context, reusing the client's
// X-Request-ID header when present.
func RqIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.CtxWithRqID(c.Request.Context(), c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		slog.Info(
			"http request",
			slog.String("rqID", utils.GetRequestIDFromCtx(c.Request.Context())),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
