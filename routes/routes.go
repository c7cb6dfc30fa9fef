package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/auth"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
	"github.com/sugarcrumb/storefront-api/kitchen"
	"gorm.io/gorm"
)

// Deps is everything the route groups hand to their controllers.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Log        *slog.Logger
	Issuer     *auth.Issuer
	Checkout   *checkout.Service
	Dispatcher *checkout.Dispatcher
	Kitchen    *kitchen.Hub
}

// SetupRoutes is the single entry point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	// Public auth routes (no middleware)
	SetupAuthRoutes(r, d)

	// Catalog (public) plus cart, customer and checkout (JWT-protected)
	SetupUserRoutes(r, d)

	// Order lookup for registered customers
	SetupOrderRoutes(r, d)

	// Back office (API-key-protected)
	SetupAdminRoutes(r, d)

	// Gateway callbacks
	SetupPaymentRoutes(r, d)
}
