package checkoutControllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/checkout"
)

// statusFor maps checkout errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *checkout.ValidationError
		notFound   *checkout.NotFoundError
		stock      *checkout.StockUnavailableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &stock), errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrCheckoutBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)

	var stock *checkout.StockUnavailableError
	if errors.As(err, &stock) {
		c.JSON(status, gin.H{"error": err.Error(), "outOfStockItems": stock.Items})
		return
	}

	var external *checkout.ExternalServiceError
	if errors.As(err, &external) {
		log.Error("Checkout external service failure", "service", external.Service, "order_id", external.OrderID, "error", external.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Payment could not be started, the order is saved as unpaid",
			"orderId": external.OrderID,
		})
		return
	}

	if status == http.StatusInternalServerError {
		log.Error("Checkout failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
