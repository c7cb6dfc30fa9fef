package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/auth"
	"github.com/sugarcrumb/storefront-api/checkout"
)

const sessionKey = "session"

// ValidateToken parses the bearer token and stores the checkout session on the context.
func ValidateToken(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}
		tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))

		session, err := issuer.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireCustomer rejects guest sessions. Use after ValidateToken.
func RequireCustomer(c *gin.Context) {
	if !Session(c).Authenticated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Registered customers only"})
		c.Abort()
		return
	}
	c.Next()
}

// Session returns the session set by ValidateToken, or a zero session.
func Session(c *gin.Context) checkout.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(checkout.Session); ok {
			return s
		}
	}
	return checkout.Session{}
}

// SetSession is used by handler tests that bypass token parsing.
func SetSession(c *gin.Context, s checkout.Session) {
	c.Set(sessionKey, s)
}
