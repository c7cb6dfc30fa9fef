package routes

import (
	"github.com/gin-gonic/gin"
	paymentControllers "github.com/sugarcrumb/storefront-api/controllers/payment"
	"github.com/sugarcrumb/storefront-api/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, d Deps) {
	paymentLog := d.Log.With("component", "paymob_callback")

	payment := r.Group("/payment")
	{
		// Transaction processed callback: middleware handles sandbox/prod verification
		payment.POST("/paymob/callback",
			middleware.PaymobWebhookAuth(d.Config.Paymob.HMACSecret, d.Config.Paymob.Mode, paymentLog),
			paymentControllers.PaymobCallbackHandler(d.DB, d.Dispatcher, d.Kitchen, paymentLog),
		)
	}
}
