package orderControllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/middleware"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// -------- Request Structs --------

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// -------- Helpers --------

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch s := models.OrderStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case models.OrderStatusPending,
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled:
		return s, nil
	default:
		return "", errors.New("invalid order status")
	}
}

func mapPaymentStatus(status string) (models.PaymentStatus, error) {
	switch s := models.PaymentStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case models.PaymentStatusPending,
		models.PaymentStatusPaid,
		models.PaymentStatusFailed,
		models.PaymentStatusRefunded:
		return s, nil
	default:
		return "", errors.New("invalid payment status")
	}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items").
		Preload("Items.ProductInstance.Product").
		Preload("Items.ProductInstance.Flavors.Flavor").
		Preload("Items.ProductInstance.Flavors.Size")
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderID"})
		return 0, false
	}
	return uint(id), true
}

// -------- Handlers --------

// GET /orders/:orderID
// Registered customers can read their own orders only.
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		session := middleware.Session(c)

		var order models.Order
		err := withDetails(db.WithContext(c.Request.Context())).
			Where("id = ? AND customer_id IN (?)", orderID,
				db.Model(&models.Customer{}).Select("id").Scopes(models.EmailEquals(session.Email))).
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders?status=&payment_status=&limit=
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := withDetails(db.WithContext(c.Request.Context()))

		if raw := c.Query("status"); raw != "" {
			status, err := mapOrderStatus(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("status = ?", status)
		}
		if raw := c.Query("payment_status"); raw != "" {
			status, err := mapPaymentStatus(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("payment_status = ?", status)
		}

		limit := 100
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 500 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
				return
			}
			limit = n
		}

		var orders []models.Order
		if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updateLocked(c, db, log, orderID, "status", newStatus, "Order status updated successfully")
	}
}

// PUT /admin/orders/:orderID/payment-status
func UpdatePaymentStatusHandler(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapPaymentStatus(req.PaymentStatus)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updateLocked(c, db, log, orderID, "payment_status", newStatus, "Payment status updated successfully")
	}
}

// updateLocked sets one column under a row lock so a concurrent gateway
// callback and a staff edit do not interleave.
func updateLocked(c *gin.Context, db *gorm.DB, log *slog.Logger, orderID uint, column string, value any, message string) {
	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			return err
		}
		return tx.Model(&order).Update(column, value).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		log.Error("Order update failed", "order_id", orderID, "column", column, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}

	log.Info("Order updated by staff", "order_id", orderID, column, value)
	c.JSON(http.StatusOK, gin.H{"message": message})
}
