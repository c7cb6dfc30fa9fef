package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// Locker serializes payment submits per cart. acquired is false when another
// request already holds the key.
type Locker interface {
	Lock(ctx context.Context, key string) (acquired bool, release func(), err error)
}

// Notifier is told about every committed order. It must not block.
type Notifier interface {
	OrderCommitted(ticket KitchenTicket)
}

type KitchenTicket struct {
	OrderID       uint                 `json:"order_id"`
	OrderRef      string               `json:"order_ref"`
	CustomerName  string               `json:"customer_name"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Zone          string               `json:"zone"`
	DeliveryDate  *time.Time           `json:"delivery_date,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Items         []KitchenLine        `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	CommittedAt   time.Time            `json:"committed_at"`
}

type KitchenLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Flavors  string `json:"flavors,omitempty"`
}

type Service struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	locker     Locker
	notifier   Notifier
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(db *gorm.DB, dispatcher *Dispatcher, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		db:         db,
		dispatcher: dispatcher,
		log:        log.With("component", "checkout"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ConfirmRequest struct {
	Session Session
	Guest   *GuestInfo
	Address AddressSelection
}

// Confirmation is the preview shown before payment.
type Confirmation struct {
	Snapshot        *Snapshot       `json:"snapshot"`
	Customer        CustomerRef     `json:"customer"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Total           decimal.Decimal `json:"total"`
}

// Confirm prices the cart, checks stock and resolves the buyer. It writes nothing.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*Confirmation, error) {
	if req.Session.CartID == 0 {
		return nil, invalid("cart_id", "session has no cart")
	}

	snap, err := BuildSnapshot(ctx, s.db, req.Session.CartID)
	if err != nil {
		return nil, err
	}
	avail, err := CheckAvailability(ctx, s.db, snap.Normalize())
	if err != nil {
		return nil, err
	}
	if err := avail.Err(); err != nil {
		return nil, err
	}

	res, err := Resolve(ctx, s.db, req.Session, req.Guest, req.Address)
	if err != nil {
		return nil, err
	}

	return &Confirmation{
		Snapshot:        snap,
		Customer:        res.Customer,
		DeliveryAddress: res.Address,
		DeliveryFee:     res.Address.DeliveryFee,
		Total:           snap.Subtotal.Add(res.Address.DeliveryFee).Round(2),
	}, nil
}

// ClientOrderData is the snapshot echoed back by the client. Only the
// subtotal is read, and only to log tampering or stale prices.
type ClientOrderData struct {
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
}

type PayRequest struct {
	Session            Session
	PaymentMethod      string
	Guest              *GuestInfo
	Address            AddressSelection
	PromoCodeID        *uint
	DeliveryTimeSlotID *uint
	DeliveryDate       string // YYYY-MM-DD, optional
	Notes              string
	OrderData          *ClientOrderData
}

// Pay commits the cart as an order and dispatches its payment.
func (s *Service) Pay(ctx context.Context, req PayRequest) (*DispatchResult, error) {
	cartID := req.Session.CartID
	if cartID == 0 {
		return nil, invalid("cart_id", "session has no cart")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, invalid("payment_method", "is required")
	}
	deliveryDate, err := s.parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		acquired, release, err := s.locker.Lock(ctx, fmt.Sprintf("checkout:cart:%d", cartID))
		if err != nil {
			return nil, fmt.Errorf("acquire checkout lock: %w", err)
		}
		if !acquired {
			return nil, ErrCheckoutBusy
		}
		defer release()
	}

	res, err := Resolve(ctx, s.db, req.Session, req.Guest, req.Address)
	if err != nil {
		return nil, err
	}

	committed, err := Commit(ctx, s.db, CommitRequest{
		CartID:             cartID,
		Resolution:         res,
		PaymentMethod:      req.PaymentMethod,
		PromoCodeID:        req.PromoCodeID,
		DeliveryTimeSlotID: req.DeliveryTimeSlotID,
		DeliveryDate:       deliveryDate,
		Notes:              req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Order committed",
		"order_id", committed.OrderID,
		"order_ref", committed.OrderRef,
		"customer_id", committed.CustomerID,
		"payment_method", committed.PaymentMethod,
		"total", committed.Total.StringFixed(2))

	if req.OrderData != nil && req.OrderData.Subtotal != nil && !req.OrderData.Subtotal.Equal(committed.Subtotal) {
		s.log.Warn("Client subtotal differs from server price",
			"order_id", committed.OrderID,
			"client_subtotal", req.OrderData.Subtotal.String(),
			"server_subtotal", committed.Subtotal.String())
	}

	// Card orders reach the kitchen once the gateway reports the payment captured.
	if s.notifier != nil && committed.PaymentMethod == models.PaymentMethodCash {
		s.notifier.OrderCommitted(s.ticket(committed, res, req.Notes, deliveryDate))
	}

	return s.dispatcher.Dispatch(ctx, DispatchRequest{Commit: committed, Resolution: res})
}

func (s *Service) parseDeliveryDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	now := s.now()
	d, err := time.ParseInLocation("2006-01-02", raw, now.Location())
	if err != nil {
		return nil, invalid("delivery_date", "must be formatted YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return nil, invalid("delivery_date", "cannot be in the past")
	}
	return &d, nil
}

func (s *Service) ticket(c *CommitResult, r Resolution, notes string, date *time.Time) KitchenTicket {
	t := KitchenTicket{
		OrderID:       c.OrderID,
		OrderRef:      c.OrderRef,
		CustomerName:  r.Customer.Name,
		PaymentMethod: c.PaymentMethod,
		Zone:          r.Address.ZoneName,
		DeliveryDate:  date,
		Notes:         strings.TrimSpace(notes),
		Total:         c.Total,
		CommittedAt:   s.now(),
	}
	for _, it := range c.Snapshot.Items {
		t.Items = append(t.Items, KitchenLine{Name: it.Name, Quantity: it.Quantity, Flavors: it.FlavorDetails})
	}
	return t
}

// TicketForOrder builds the kitchen ticket of a stored order. order needs
// Customer and Items.ProductInstance with Product and Flavors.Flavor loaded.
func TicketForOrder(order models.Order, at time.Time) KitchenTicket {
	t := KitchenTicket{
		OrderID:       order.ID,
		OrderRef:      order.OrderRef,
		CustomerName:  order.Customer.Name,
		PaymentMethod: order.PaymentMethod,
		Zone:          order.DeliveryZone,
		DeliveryDate:  order.DeliveryDate,
		Notes:         order.Notes,
		Total:         order.Total,
		CommittedAt:   at,
	}
	for _, it := range order.Items {
		inst := it.ProductInstance
		t.Items = append(t.Items, KitchenLine{
			Name:     inst.Product.Name,
			Quantity: it.Quantity,
			Flavors:  FlavorSummary(inst.Flavors),
		})
	}
	return t
}

// FlavorSummary renders pack flavors as "Lemon (2x), Vanilla (1x)".
func FlavorSummary(flavors []models.ProductInstanceFlavor) string {
	parts := make([]string, 0, len(flavors))
	for _, f := range flavors {
		parts = append(parts, fmt.Sprintf("%s (%dx)", f.Flavor.Name, f.Quantity))
	}
	return strings.Join(parts, ", ")
}
