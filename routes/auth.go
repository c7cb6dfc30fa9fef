package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/auth"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/guest", auth.CreateGuestSession(d.DB, d.Issuer, d.Log))
	}
}
