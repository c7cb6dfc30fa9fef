package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// GetProductByID returns a single active product.
// URL param: /catalog/products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var product models.Product
		if err := db.WithContext(c.Request.Context()).Where("is_active = ?", true).First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /catalog/flavors
func GetFlavors(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var flavors []models.Flavor
		if err := db.WithContext(c.Request.Context()).
			Where("is_active = ?", true).
			Order("name").
			Find(&flavors).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch flavors"})
			return
		}
		c.JSON(http.StatusOK, flavors)
	}
}

// GET /catalog/zones
// Cities with their active delivery zones.
func GetZones(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cities []models.City
		if err := db.WithContext(c.Request.Context()).
			Preload("Zones", func(tx *gorm.DB) *gorm.DB {
				return tx.Where("is_active = ?", true).Order("name")
			}).
			Order("name").
			Find(&cities).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch zones"})
			return
		}
		c.JSON(http.StatusOK, cities)
	}
}

// GET /catalog/delivery-slots
func GetDeliverySlots(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var slots []models.DeliveryTimeSlot
		if err := db.WithContext(c.Request.Context()).
			Where("is_active = ?", true).
			Order("sort_order, start_time").
			Find(&slots).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch delivery slots"})
			return
		}
		c.JSON(http.StatusOK, slots)
	}
}
