package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/sugarcrumb/storefront-api/controllers/order"
	productcontroller "github.com/sugarcrumb/storefront-api/controllers/product"
	userControllers "github.com/sugarcrumb/storefront-api/controllers/user"
	"github.com/sugarcrumb/storefront-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminLog := d.Log.With("component", "admin")

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.Config.AdminAPIKey))
	{
		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(d.DB))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(d.DB, adminLog))
			orderAdmin.PUT("/:orderID/payment-status", orderControllers.UpdatePaymentStatusHandler(d.DB, adminLog))
		}

		// ─────────── Customers ───────────
		adminGroup.GET("/customers", userControllers.GetAllCustomers(d.DB))

		// ─────────── Kitchen live feed ───────────
		adminGroup.GET("/kitchen/ws", d.Kitchen.Handler())

		// ─────────── Stock spreadsheets ───────────
		inventory := adminGroup.Group("/inventory")
		{
			inventory.POST("/import", productcontroller.ImportStockFromExcel(d.DB, adminLog))
			inventory.GET("/export", productcontroller.ExportStockToExcel(d.DB, adminLog))
		}
	}
}
