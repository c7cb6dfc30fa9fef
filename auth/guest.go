package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// POST /auth/guest
func CreateGuestSession(db *gorm.DB, issuer *Issuer, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := "guest_" + generateRandomString(16)

		cart := models.Cart{GuestID: &guestID}
		if err := db.WithContext(c.Request.Context()).Create(&cart).Error; err != nil {
			log.Error("Failed to create guest cart", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}

		token, expiresAt, err := issuer.IssueGuest(guestID, cart.ID)
		if err != nil {
			log.Error("Guest token generation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"cart_id":    cart.ID,
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}

func generateRandomString(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "rand_guest"
	}
	return hex.EncodeToString(bytes)
}
