package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/time/rate"
)

// maxWebhookBody caps provider payloads; real ones are well under 4 KiB.
const maxWebhookBody = 64 << 10

// WebhookRateLimiter is a single shared bucket for the provider callback.
func WebhookRateLimiter(perSecond, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.RespondAppError(c, utils.NewTooManyRequestsError("Too many webhook deliveries"))
			return
		}
		c.Next()
	}
}

func LimitWebhookBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
		c.Next()
	}
}

// LogWebhookRequest logs every provider delivery with its outcome.
func LogWebhookRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		utils.InfoLogger.WithFields(logrus.Fields{
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"ip":       c.ClientIP(),
		}).Info("Payment webhook received")
	}
}
