package checkoutControllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/middleware"
)

type ConfirmInput struct {
	Guest   *checkout.GuestInfo       `json:"guest"`
	Address checkout.AddressSelection `json:"address_selection"`
}

type PaymentInput struct {
	PaymentMethod      string                    `json:"payment_method"`
	Guest              *checkout.GuestInfo       `json:"guest"`
	Address            checkout.AddressSelection `json:"address_selection"`
	PromoCodeID        *uint                     `json:"promo_code_id"`
	DeliveryTimeSlotID *uint                     `json:"time_slot_id"`
	DeliveryDate       string                    `json:"delivery_date"` // YYYY-MM-DD
	Notes              string                    `json:"notes"`
	OrderData          *checkout.ClientOrderData `json:"orderData"`
}

// POST /checkout/confirm
func Confirm(svc *checkout.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ConfirmInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		conf, err := svc.Confirm(c.Request.Context(), checkout.ConfirmRequest{
			Session: middleware.Session(c),
			Guest:   input.Guest,
			Address: input.Address,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, conf)
	}
}

// POST /checkout/payment
func Payment(svc *checkout.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		result, err := svc.Pay(c.Request.Context(), checkout.PayRequest{
			Session:            middleware.Session(c),
			PaymentMethod:      input.PaymentMethod,
			Guest:              input.Guest,
			Address:            input.Address,
			PromoCodeID:        input.PromoCodeID,
			DeliveryTimeSlotID: input.DeliveryTimeSlotID,
			DeliveryDate:       input.DeliveryDate,
			Notes:              input.Notes,
			OrderData:          input.OrderData,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}

		body := gin.H{
			"success":  true,
			"orderId":  result.OrderID,
			"orderRef": result.OrderRef,
		}
		if result.PaymentURL != "" {
			body["paymentUrl"] = result.PaymentURL
			body["paymentToken"] = result.PaymentToken
		}
		c.JSON(http.StatusOK, body)
	}
}
