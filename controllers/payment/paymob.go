package paymentControllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/middleware"
	"github.com/sugarcrumb/storefront-api/models"
	"github.com/sugarcrumb/storefront-api/payment/paymob"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type callbackOutcome int

const (
	outcomeApplied callbackOutcome = iota
	outcomeAlreadyFinal
	outcomeAmountMismatch
)

// POST /payment/paymob/callback
//
// Runs after middleware.PaymobWebhookAuth. Paymob retries on any non-2xx
// answer, so outcomes that need no retry are acknowledged with 200.
func PaymobCallbackHandler(db *gorm.DB, dispatcher *checkout.Dispatcher, kitchen checkout.Notifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cb, ok := middleware.PaymobCallback(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing callback"})
			return
		}
		txn := cb.Obj
		if cb.Type != "" && cb.Type != "TRANSACTION" {
			c.JSON(http.StatusOK, gin.H{"message": "ignored"})
			return
		}
		if txn.Pending {
			c.JSON(http.StatusOK, gin.H{"message": "Payment pending"})
			return
		}

		var order models.Order
		outcome := outcomeApplied
		err := db.WithContext(c.Request.Context()).Transaction(func(dbTx *gorm.DB) error {
			if err := findOrder(dbTx, txn, &order); err != nil {
				return err
			}
			if order.PaymentStatus == models.PaymentStatusPaid || order.PaymentStatus == models.PaymentStatusRefunded {
				outcome = outcomeAlreadyFinal
				return nil
			}

			if !txn.Success {
				return dbTx.Model(&order).Update("payment_status", models.PaymentStatusFailed).Error
			}
			if order.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart() != txn.AmountCents {
				outcome = outcomeAmountMismatch
				return nil
			}
			return dbTx.Model(&order).Updates(map[string]any{
				"payment_status": models.PaymentStatusPaid,
				"status":         models.OrderStatusConfirmed,
			}).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("Paymob callback for unknown order", "paymob_order_id", txn.Order.ID, "merchant_order_id", txn.Order.MerchantOrderID)
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			log.Error("Failed to apply Paymob callback", "paymob_order_id", txn.Order.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
			return
		}

		switch {
		case outcome == outcomeAlreadyFinal:
			c.JSON(http.StatusOK, gin.H{"message": "Payment already processed"})
		case outcome == outcomeAmountMismatch:
			log.Warn("Paymob amount does not match order total",
				"order_id", order.ID, "amount_cents", txn.AmountCents, "order_total", order.Total.StringFixed(2))
			c.JSON(http.StatusOK, gin.H{"message": "Amount mismatch, order left pending"})
		case !txn.Success:
			log.Info("Payment declined", "order_id", order.ID, "transaction_id", txn.ID)
			c.JSON(http.StatusOK, gin.H{"message": "Payment not successful"})
		default:
			log.Info("Payment captured", "order_id", order.ID, "transaction_id", txn.ID)
			paid, err := loadOrderDetails(db.WithContext(c.Request.Context()), order.ID)
			if err != nil {
				log.Warn("Could not load paid order", "order_id", order.ID, "error", err)
			} else {
				if kitchen != nil {
					kitchen.OrderCommitted(checkout.TicketForOrder(paid, time.Now()))
				}
				dispatcher.SendConfirmation(c.Request.Context(), confirmationFor(paid))
			}
			c.JSON(http.StatusOK, gin.H{"message": "Payment confirmed"})
		}
	}
}

// findOrder locks the order matching Paymob's order id, falling back to our
// reference echoed as merchant_order_id.
func findOrder(db *gorm.DB, txn paymob.Transaction, order *models.Order) error {
	locking := clause.Locking{Strength: "UPDATE"}
	if txn.Order.ID != 0 {
		err := db.Clauses(locking).Where("gateway_order_id = ?", strconv.FormatInt(txn.Order.ID, 10)).First(order).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if ref := strings.TrimSpace(txn.Order.MerchantOrderID); ref != "" {
		return db.Clauses(locking).Where("order_ref = ?", ref).First(order).Error
	}
	return gorm.ErrRecordNotFound
}

func loadOrderDetails(db *gorm.DB, orderID uint) (models.Order, error) {
	var order models.Order
	err := db.
		Preload("Customer").
		Preload("Items").
		Preload("Items.ProductInstance.Product").
		Preload("Items.ProductInstance.Flavors.Flavor").
		First(&order, orderID).Error
	return order, err
}

func confirmationFor(order models.Order) checkout.OrderConfirmation {
	msg := checkout.OrderConfirmation{
		OrderID:       order.ID,
		OrderRef:      order.OrderRef,
		CustomerName:  order.Customer.Name,
		Email:         order.Customer.Email,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Address: checkout.DeliveryAddress{
			Street:         order.DeliveryStreet,
			CityName:       order.DeliveryCity,
			ZoneID:         order.DeliveryZoneID,
			ZoneName:       order.DeliveryZone,
			AdditionalInfo: order.DeliveryAdditionalInfo,
			DeliveryFee:    order.DeliveryFee,
		},
	}
	for _, it := range order.Items {
		inst := it.ProductInstance
		msg.Items = append(msg.Items, checkout.PricedItem{
			ProductID:     inst.ProductID,
			Name:          inst.Product.Name,
			IsPack:        inst.Kind == models.InstanceKindPack,
			Quantity:      it.Quantity,
			FlavorDetails: checkout.FlavorSummary(inst.Flavors),
			Total:         it.Total,
		})
	}
	return msg
}
