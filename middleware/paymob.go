package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/payment/paymob"
)

const paymobCallbackKey = "paymob_callback"

// PaymobWebhookAuth decodes the transaction callback and verifies its HMAC
// (hmac query parameter). Verification is skipped in sandbox mode.
func PaymobWebhookAuth(secret, mode string, log *slog.Logger) gin.HandlerFunc {
	sandbox := mode == "sandbox" || mode == "dev"

	return func(c *gin.Context) {
		var cb paymob.Callback
		if err := c.ShouldBindJSON(&cb); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse callback body"})
			c.Abort()
			return
		}

		if sandbox {
			log.Debug("Sandbox mode: skipping Paymob signature verification", "transaction_id", cb.Obj.ID)
		} else {
			provided := c.Query("hmac")
			if provided == "" {
				c.JSON(http.StatusForbidden, gin.H{"error": "missing hmac signature"})
				c.Abort()
				return
			}
			if !paymob.Verify(secret, cb.Obj, provided) {
				log.Warn("Paymob callback signature mismatch", "transaction_id", cb.Obj.ID, "paymob_order_id", cb.Obj.Order.ID)
				c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
				c.Abort()
				return
			}
		}

		c.Set(paymobCallbackKey, cb)
		c.Next()
	}
}

// PaymobCallback returns the callback verified by PaymobWebhookAuth.
func PaymobCallback(c *gin.Context) (paymob.Callback, bool) {
	v, ok := c.Get(paymobCallbackKey)
	if !ok {
		return paymob.Callback{}, false
	}
	cb, ok := v.(paymob.Callback)
	return cb, ok
}
