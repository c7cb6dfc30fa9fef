package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/sugarcrumb/storefront-api/controllers/order"
	"github.com/sugarcrumb/storefront-api/middleware"
)

func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken(d.Issuer), middleware.RequireCustomer)
	{
		// Fetch one of the caller's orders
		orders.GET("/:orderID", orderControllers.GetOrderHandler(d.DB))
	}
}
