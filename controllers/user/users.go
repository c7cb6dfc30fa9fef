package userControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/middleware"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// GET /customer/addresses
func GetAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := middleware.Session(c).Email

		var customer models.Customer
		err := db.WithContext(c.Request.Context()).
			Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("is_default DESC, created_at DESC")
			}).
			Preload("Addresses.City").
			Preload("Addresses.Zone").
			Scopes(models.EmailEquals(email)).
			First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
			return
		}

		addresses := customer.Addresses
		if addresses == nil {
			addresses = []models.CustomerAddress{}
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// GET /admin/customers
func GetAllCustomers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.WithContext(c.Request.Context()).
			Select("id", "name", "email", "phone", "type", "created_at").
			Order("created_at desc")
		if typ := c.Query("type"); typ != "" {
			query = query.Where("type = ?", typ)
		}

		var customers []models.Customer
		if err := query.Find(&customers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
			return
		}

		c.JSON(http.StatusOK, customers)
	}
}
