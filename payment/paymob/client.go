// Package paymob talks to the Paymob Accept API: authenticate, register an
// order, issue a payment key and build the hosted iframe URL.
package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
)

const paymentKeyExpiry = 3600 // seconds

type Client struct {
	cfg  config.Paymob
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(cfg config.Paymob, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log.With("component", "paymob"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	return c
}

type authResponse struct {
	Token string `json:"token"`
}

type orderItem struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type orderResponse struct {
	ID int64 `json:"id"`
}

type billingData struct {
	Apartment      string `json:"apartment"`
	Email          string `json:"email"`
	Floor          string `json:"floor"`
	FirstName      string `json:"first_name"`
	Street         string `json:"street"`
	Building       string `json:"building"`
	PhoneNumber    string `json:"phone_number"`
	ShippingMethod string `json:"shipping_method"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	LastName       string `json:"last_name"`
	State          string `json:"state"`
}

type paymentKeyResponse struct {
	Token string `json:"token"`
}

// CreatePayment runs the three Paymob calls and returns the iframe session.
func (c *Client) CreatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentSession, error) {
	amount := cents(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("paymob: invalid amount %s", req.Amount)
	}

	var auth authResponse
	if err := c.post(ctx, "/api/auth/tokens", map[string]any{"api_key": c.cfg.APIKey}, &auth); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if auth.Token == "" {
		return nil, errors.New("paymob returned empty auth token")
	}

	items := make([]orderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orderItem{
			Name:        it.Name,
			AmountCents: cents(it.UnitPrice()),
			Description: it.FlavorDetails,
			Quantity:    it.Quantity,
		})
	}

	var order orderResponse
	if err := c.post(ctx, "/api/ecommerce/orders", map[string]any{
		"auth_token":        auth.Token,
		"delivery_needed":   false,
		"amount_cents":      amount,
		"currency":          c.cfg.Currency,
		"merchant_order_id": req.OrderRef,
		"items":             items,
	}, &order); err != nil {
		return nil, fmt.Errorf("register order: %w", err)
	}
	if order.ID == 0 {
		return nil, errors.New("paymob returned empty order id")
	}

	first, last := splitName(req.Customer.Name)
	var key paymentKeyResponse
	if err := c.post(ctx, "/api/acceptance/payment_keys", map[string]any{
		"auth_token":     auth.Token,
		"amount_cents":   amount,
		"expiration":     paymentKeyExpiry,
		"order_id":       order.ID,
		"currency":       c.cfg.Currency,
		"integration_id": c.cfg.IntegrationID,
		"billing_data": billingData{
			Apartment:      "NA",
			Email:          orNA(req.Customer.Email),
			Floor:          "NA",
			FirstName:      first,
			Street:         orNA(req.Address.Street),
			Building:       "NA",
			PhoneNumber:    orNA(req.Customer.Phone),
			ShippingMethod: "NA",
			PostalCode:     "NA",
			City:           orNA(req.Address.CityName),
			Country:        "EG",
			LastName:       last,
			State:          orNA(req.Address.ZoneName),
		},
	}, &key); err != nil {
		return nil, fmt.Errorf("payment key: %w", err)
	}
	if key.Token == "" {
		return nil, errors.New("paymob returned empty payment token")
	}

	c.log.Info("Paymob payment session created", "order_id", req.OrderID, "paymob_order_id", order.ID)
	return &checkout.PaymentSession{
		GatewayOrderID: strconv.FormatInt(order.ID, 10),
		Token:          key.Token,
		URL:            c.IframeURL(key.Token),
	}, nil
}

// IframeURL is the hosted card form for a payment key.
func (c *Client) IframeURL(token string) string {
	return fmt.Sprintf("%s/api/acceptance/iframes/%d?payment_token=%s", c.cfg.BaseURL, c.cfg.IframeID, token)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach Paymob: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("paymob API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse Paymob response: %w", err)
	}
	return nil
}

func cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "NA", "NA"
	case 1:
		return parts[0], "NA"
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "NA"
	}
	return s
}
