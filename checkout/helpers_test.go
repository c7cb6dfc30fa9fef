package checkout

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/sugarcrumb/storefront-api/logger"
)

func quietLogger() *slog.Logger {
	return logger.NewWithWriter(io.Discard, "error", "text")
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []PaymentRequest
	session *PaymentSession
	err     error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req PaymentRequest) (*PaymentSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []OrderConfirmation
	err  error
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, msg OrderConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeNotifier struct {
	tickets []KitchenTicket
}

func (n *fakeNotifier) OrderCommitted(t KitchenTicket) {
	n.tickets = append(n.tickets, t)
}

type fakeLocker struct {
	held     map[string]bool
	released []string
}

func (l *fakeLocker) Lock(_ context.Context, key string) (bool, func(), error) {
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return false, nil, nil
	}
	l.held[key] = true
	return true, func() {
		delete(l.held, key)
		l.released = append(l.released, key)
	}, nil
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }
