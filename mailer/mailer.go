// Package mailer sends order confirmation emails.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hi {{.CustomerName}},

Thank you for your order #{{.OrderID}} ({{.OrderRef}}).

{{range .Items}}- {{.Quantity}} x {{.Name}}{{if .FlavorDetails}} [{{.FlavorDetails}}]{{end}}: {{.Total.StringFixed 2}}
{{end}}
Subtotal: {{.Subtotal.StringFixed 2}}
Delivery: {{.DeliveryFee.StringFixed 2}}
Total:    {{.Total.StringFixed 2}}

Payment: {{.PaymentMethod}}
Deliver to: {{.Address.Street}}, {{.Address.ZoneName}}, {{.Address.CityName}}
`))

// RenderConfirmation returns the subject and plain-text body.
func RenderConfirmation(msg checkout.OrderConfirmation) (string, string, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, msg); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	return fmt.Sprintf("Your order #%d is confirmed", msg.OrderID), body.String(), nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.SMTP
	send sendFunc
	log  *slog.Logger
}

func NewSMTPMailer(cfg config.SMTP, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, log: log.With("component", "mailer")}
}

func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, msg checkout.OrderConfirmation) error {
	if strings.TrimSpace(msg.Email) == "" {
		return fmt.Errorf("order %d has no recipient", msg.OrderID)
	}
	subject, body, err := RenderConfirmation(msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	raw := buildMessage(m.cfg.From, msg.Email, subject, body)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	done := make(chan error, 1)
	go func() { done <- m.send(addr, auth, m.cfg.From, []string{msg.Email}, raw) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.Email, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	m.log.Info("Order confirmation sent", "order_id", msg.OrderID, "email", msg.Email)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer only logs; used when SMTP is not configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) SendOrderConfirmation(_ context.Context, msg checkout.OrderConfirmation) error {
	subject, _, err := RenderConfirmation(msg)
	if err != nil {
		return err
	}
	m.log.Info("Order confirmation (not sent, SMTP disabled)", "order_id", msg.OrderID, "email", msg.Email, "subject", subject)
	return nil
}
