package productcontroller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

var productSortColumns = map[string]bool{
	"sort_order": true,
	"name":       true,
	"base_price": true,
	"created_at": true,
}

// GET /catalog/products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.TrimSpace(c.Query("search"))
		packParam := c.Query("is_pack")
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		sortBy := c.DefaultQuery("sort_by", "sort_order")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "asc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "asc"
		}
		if !productSortColumns[sortBy] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
			return
		}

		query := db.WithContext(c.Request.Context()).Model(&models.Product{}).Where("is_active = ?", true)

		if search != "" {
			likePattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", likePattern, likePattern)
		}

		if packParam != "" {
			isPack, err := strconv.ParseBool(packParam)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_pack"})
				return
			}
			query = query.Where("is_pack = ?", isPack)
		}

		if minPriceStr != "" {
			mp, err := decimal.NewFromString(minPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
			query = query.Where("base_price >= ?", mp)
		}
		if maxPriceStr != "" {
			mp, err := decimal.NewFromString(maxPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
			query = query.Where("base_price <= ?", mp)
		}

		var products []models.Product
		if err := query.Order(fmt.Sprintf("%s %s, id", sortBy, sortOrder)).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
