package mailer

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
	"github.com/sugarcrumb/storefront-api/logger"
	"github.com/sugarcrumb/storefront-api/models"
)

func sampleConfirmation() checkout.OrderConfirmation {
	return checkout.OrderConfirmation{
		OrderID:      31,
		OrderRef:     "20250314-xyz",
		CustomerName: "Nour",
		Email:        "nour@example.com",
		Items: []checkout.PricedItem{
			{Name: "Giant Cookie", Quantity: 2, Total: decimal.RequireFromString("20")},
			{Name: "Box of 4", Quantity: 1, FlavorDetails: "Lemon (4x)", Total: decimal.RequireFromString("28.5")},
		},
		Subtotal:      decimal.RequireFromString("48.5"),
		DeliveryFee:   decimal.RequireFromString("25"),
		Total:         decimal.RequireFromString("73.5"),
		PaymentMethod: models.PaymentMethodCash,
		Address:       checkout.DeliveryAddress{Street: "12 Tahrir", ZoneName: "Maadi", CityName: "Cairo"},
	}
}

func TestRenderConfirmation(t *testing.T) {
	subject, body, err := RenderConfirmation(sampleConfirmation())
	require.NoError(t, err)

	assert.Equal(t, "Your order #31 is confirmed", subject)
	assert.Contains(t, body, "- 2 x Giant Cookie: 20.00")
	assert.Contains(t, body, "- 1 x Box of 4 [Lemon (4x)]: 28.50")
	assert.Contains(t, body, "Total:    73.50")
	assert.Contains(t, body, "12 Tahrir, Maadi, Cairo")
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(config.SMTP{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "orders@bakery.test"},
		logger.NewWithWriter(io.Discard, "error", "text"))

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, m.SendOrderConfirmation(context.Background(), sampleConfirmation()))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "orders@bakery.test", gotFrom)
	assert.Equal(t, []string{"nour@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your order #31 is confirmed\r\n")
	assert.Contains(t, string(gotMsg), "Giant Cookie")
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(config.SMTP{Host: "smtp.example.com", Port: "25", From: "x@y.z"}, logger.NewWithWriter(io.Discard, "error", "text"))
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	err := m.SendOrderConfirmation(context.Background(), sampleConfirmation())
	assert.ErrorContains(t, err, "connection refused")

	noRecipient := sampleConfirmation()
	noRecipient.Email = ""
	assert.Error(t, m.SendOrderConfirmation(context.Background(), noRecipient))
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(logger.NewWithWriter(io.Discard, "error", "text"))
	assert.NoError(t, m.SendOrderConfirmation(context.Background(), sampleConfirmation()))
}
