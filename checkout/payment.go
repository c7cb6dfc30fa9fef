package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// PaymentRequest is what the gateway needs to open a payment for an order.
type PaymentRequest struct {
	OrderID  uint
	OrderRef string
	Amount   decimal.Decimal
	Customer CustomerRef
	Address  DeliveryAddress
	Items    []PricedItem
}

// PaymentSession is the gateway's answer: its own order id, the payment key
// used to correlate the callback, and the URL the buyer is sent to.
type PaymentSession struct {
	GatewayOrderID string
	Token          string
	URL            string
}

type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}

type OrderConfirmation struct {
	OrderID       uint
	OrderRef      string
	CustomerName  string
	Email         string
	Items         []PricedItem
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod models.PaymentMethod
	Address       DeliveryAddress
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
}

type DispatchRequest struct {
	Commit     *CommitResult
	Resolution Resolution
}

type DispatchResult struct {
	OrderID      uint   `json:"orderId"`
	OrderRef     string `json:"orderRef"`
	PaymentURL   string `json:"paymentUrl,omitempty"`
	PaymentToken string `json:"paymentToken,omitempty"`
}

// Dispatcher finishes a committed order: cash orders get a confirmation
// email, card orders get a gateway payment session.
type Dispatcher struct {
	db      *gorm.DB
	gateway Gateway
	mailer  Mailer
	log     *slog.Logger
}

// NewDispatcher accepts a nil gateway; card payments then fail with an ExternalServiceError.
func NewDispatcher(db *gorm.DB, gateway Gateway, mailer Mailer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{db: db, gateway: gateway, mailer: mailer, log: log.With("component", "payment_dispatcher")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	c := req.Commit
	if c == nil {
		return nil, errors.New("dispatch: missing committed order")
	}
	res := &DispatchResult{OrderID: c.OrderID, OrderRef: c.OrderRef}

	if c.PaymentMethod == models.PaymentMethodCash {
		d.SendConfirmation(ctx, ConfirmationFor(c, req.Resolution))
		return res, nil
	}

	if d.gateway == nil {
		return nil, &ExternalServiceError{
			Service: "payment gateway", OrderID: c.OrderID, Critical: true,
			Err: errors.New("online payment is not configured"),
		}
	}

	var items []PricedItem
	if c.Snapshot != nil {
		items = c.Snapshot.Items
	}
	session, err := d.gateway.CreatePayment(ctx, PaymentRequest{
		OrderID:  c.OrderID,
		OrderRef: c.OrderRef,
		Amount:   c.Total,
		Customer: req.Resolution.Customer,
		Address:  req.Resolution.Address,
		Items:    items,
	})
	if err != nil {
		d.log.Error("Payment gateway call failed", "order_id", c.OrderID, "error", err)
		return nil, &ExternalServiceError{Service: "payment gateway", OrderID: c.OrderID, Critical: true, Err: err}
	}

	updates := map[string]any{"payment_token": session.Token}
	if session.GatewayOrderID != "" {
		updates["gateway_order_id"] = session.GatewayOrderID
	}
	if err := d.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", c.OrderID).
		Updates(updates).Error; err != nil {
		d.log.Error("Failed to store payment token", "order_id", c.OrderID, "error", err)
		return nil, &ExternalServiceError{
			Service: "payment gateway", OrderID: c.OrderID, Critical: true,
			Err: fmt.Errorf("store payment token: %w", err),
		}
	}

	redirect, err := withOrderID(session.URL, c.OrderID)
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment gateway", OrderID: c.OrderID, Critical: true, Err: err}
	}

	res.PaymentURL = redirect
	res.PaymentToken = session.Token
	return res, nil
}

// SendConfirmation emails the buyer. Failures are logged, never returned.
func (d *Dispatcher) SendConfirmation(ctx context.Context, msg OrderConfirmation) {
	if d.mailer == nil {
		return
	}
	if err := d.mailer.SendOrderConfirmation(ctx, msg); err != nil {
		d.log.Warn("Order confirmation email failed",
			"order_id", msg.OrderID,
			"email", msg.Email,
			"error", &ExternalServiceError{Service: "email", OrderID: msg.OrderID, Err: err})
	}
}

func ConfirmationFor(c *CommitResult, r Resolution) OrderConfirmation {
	msg := OrderConfirmation{
		OrderID:       c.OrderID,
		OrderRef:      c.OrderRef,
		CustomerName:  r.Customer.Name,
		Email:         r.Customer.Email,
		Subtotal:      c.Subtotal,
		DeliveryFee:   c.DeliveryFee,
		Total:         c.Total,
		PaymentMethod: c.PaymentMethod,
		Address:       r.Address,
	}
	if c.Snapshot != nil {
		msg.Items = c.Snapshot.Items
	}
	return msg
}

// withOrderID adds the local order id to the gateway URL so it survives the redirect round-trip.
func withOrderID(raw string, orderID uint) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return "", fmt.Errorf("invalid payment url %q", raw)
	}
	q := u.Query()
	q.Set("order_id", strconv.FormatUint(uint64(orderID), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
