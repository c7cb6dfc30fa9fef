package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/sugarcrumb/storefront-api/controllers/cart"
	checkoutControllers "github.com/sugarcrumb/storefront-api/controllers/checkout"
	productcontroller "github.com/sugarcrumb/storefront-api/controllers/product"
	userControllers "github.com/sugarcrumb/storefront-api/controllers/user"
	"github.com/sugarcrumb/storefront-api/middleware"
)

// SetupUserRoutes registers the storefront endpoints. Everything except the
// catalog requires a guest or customer token.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	// ──────────────── Browse Catalog ────────────────
	catalog := r.Group("/catalog")
	{
		catalog.GET("/products", productcontroller.GetProducts(d.DB))
		catalog.GET("/products/:id", productcontroller.GetProductByID(d.DB))
		catalog.GET("/flavors", productcontroller.GetFlavors(d.DB))
		catalog.GET("/zones", productcontroller.GetZones(d.DB))
		catalog.GET("/delivery-slots", productcontroller.GetDeliverySlots(d.DB))
	}

	checkoutLog := d.Log.With("component", "checkout_http")
	cartLog := d.Log.With("component", "cart")

	// ──────────────── Shopping Cart ────────────────
	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.ValidateToken(d.Issuer))
	{
		cartGroup.GET("", cartControllers.GetCart(d.DB, cartLog))
		cartGroup.POST("", cartControllers.AddCartItem(d.DB, cartLog))
		cartGroup.DELETE("", cartControllers.ClearCart(d.DB))
		cartGroup.DELETE("/items/:id", cartControllers.DeleteCartItem(d.DB))
	}

	// ──────────────── Checkout ────────────────
	checkoutGroup := r.Group("/checkout")
	checkoutGroup.Use(middleware.ValidateToken(d.Issuer))
	{
		checkoutGroup.POST("/confirm", checkoutControllers.Confirm(d.Checkout, checkoutLog))
		checkoutGroup.POST("/payment", checkoutControllers.Payment(d.Checkout, checkoutLog))
	}

	// ──────────────── Customer Profile ────────────────
	customer := r.Group("/customer")
	customer.Use(middleware.ValidateToken(d.Issuer), middleware.RequireCustomer)
	{
		customer.GET("/addresses", userControllers.GetAddresses(d.DB))
	}
}
