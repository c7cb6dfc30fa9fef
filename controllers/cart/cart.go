package cartControllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/middleware"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

type FlavorInput struct {
	FlavorID uint `json:"flavor_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"` // units of this flavor for the whole line
}

type CartItemInput struct {
	ProductID uint          `json:"product_id" binding:"required"`
	Quantity  int           `json:"quantity" binding:"required,min=1"`
	Flavors   []FlavorInput `json:"flavors"`
}

// GET /cart
func GetCart(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, ok := sessionCart(c)
		if !ok {
			return
		}

		snap, err := checkout.BuildSnapshot(c.Request.Context(), db, cartID)
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusOK, &checkout.Snapshot{CartID: cartID, Items: []checkout.PricedItem{}, Subtotal: decimal.Zero})
		case errors.Is(err, checkout.ErrCartNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		case err != nil:
			log.Error("Failed to price cart", "cart_id", cartID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		default:
			c.JSON(http.StatusOK, snap)
		}
	}
}

// POST /cart
//
// Plain products replace the quantity of an existing line. Every pack submit
// creates a new line since two packs of the same product can hold different flavors.
func AddCartItem(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, ok := sessionCart(c)
		if !ok {
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())

		var product models.Product
		if err := db.Where("is_active = ?", true).First(&product, input.ProductID).Error; err != nil {
			status := http.StatusInternalServerError
			errMsg := "Failed to validate product"
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = http.StatusBadRequest
				errMsg = "Product does not exist"
			}
			c.JSON(status, gin.H{"error": errMsg})
			return
		}

		if !product.IsPack {
			if len(input.Flavors) > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Only packs take flavors"})
				return
			}
			item, created, err := upsertPlainItem(db, cartID, product.ID, input.Quantity)
			if err != nil {
				log.Error("Failed to save cart item", "cart_id", cartID, "product_id", product.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
				return
			}
			status := http.StatusOK
			if created {
				status = http.StatusCreated
			}
			c.JSON(status, item)
			return
		}

		flavors, err := packFlavors(db, product, input)
		if err != nil {
			var bad *badPackError
			if errors.As(err, &bad) {
				c.JSON(http.StatusBadRequest, gin.H{"error": bad.Error()})
				return
			}
			log.Error("Failed to validate pack flavors", "product_id", product.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate flavors"})
			return
		}

		item := models.CartItem{
			CartID:    cartID,
			ProductID: product.ID,
			Quantity:  input.Quantity,
			Flavors:   flavors,
			AddedAt:   time.Now(),
		}
		if err := db.Create(&item).Error; err != nil {
			log.Error("Failed to add pack to cart", "cart_id", cartID, "product_id", product.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// DELETE /cart/items/:id
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, ok := sessionCart(c)
		if !ok {
			return
		}
		itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item ID"})
			return
		}

		var deleted int64
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			res := tx.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
			if res.Error != nil {
				return res.Error
			}
			deleted = res.RowsAffected
			if deleted == 0 {
				return nil
			}
			return tx.Where("cart_item_id = ?", itemID).Delete(&models.CartItemFlavor{}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		if deleted == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, ok := sessionCart(c)
		if !ok {
			return
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			items := tx.Model(&models.CartItem{}).Select("id").Where("cart_id = ?", cartID)
			if err := tx.Where("cart_item_id IN (?)", items).Delete(&models.CartItemFlavor{}).Error; err != nil {
				return err
			}
			return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

func sessionCart(c *gin.Context) (uint, bool) {
	s := middleware.Session(c)
	if s.CartID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session has no cart"})
		return 0, false
	}
	return s.CartID, true
}

func upsertPlainItem(db *gorm.DB, cartID, productID uint, qty int) (models.CartItem, bool, error) {
	var item models.CartItem
	err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty, AddedAt: time.Now()}
		return item, true, db.Create(&item).Error
	}
	if err != nil {
		return item, false, err
	}

	item.Quantity = qty
	item.AddedAt = time.Now()
	return item, false, db.Save(&item).Error
}

type badPackError struct{ msg string }

func (e *badPackError) Error() string { return e.msg }

// packFlavors checks that the composition fills the pack exactly
// (Σ flavor quantities = count × line quantity) and stamps each row with the pack's size.
func packFlavors(db *gorm.DB, product models.Product, input CartItemInput) ([]models.CartItemFlavor, error) {
	if len(input.Flavors) == 0 {
		return nil, &badPackError{"Pack requires flavors"}
	}

	want := product.Count * input.Quantity
	got := 0
	ids := make([]uint, 0, len(input.Flavors))
	seen := map[uint]bool{}
	for _, f := range input.Flavors {
		if seen[f.FlavorID] {
			return nil, &badPackError{fmt.Sprintf("Flavor %d listed twice", f.FlavorID)}
		}
		seen[f.FlavorID] = true
		ids = append(ids, f.FlavorID)
		got += f.Quantity
	}
	if got != want {
		return nil, &badPackError{fmt.Sprintf("Pack needs %d flavor units, got %d", want, got)}
	}

	var active int64
	if err := db.Model(&models.Flavor{}).Where("id IN ? AND is_active = ?", ids, true).Count(&active).Error; err != nil {
		return nil, err
	}
	if int(active) != len(ids) {
		return nil, &badPackError{"Unknown or inactive flavor"}
	}

	size := product.FlavorSize.Tier()
	rows := make([]models.CartItemFlavor, 0, len(input.Flavors))
	for _, f := range input.Flavors {
		rows = append(rows, models.CartItemFlavor{FlavorID: f.FlavorID, Quantity: f.Quantity, Size: size})
	}
	return rows, nil
}
