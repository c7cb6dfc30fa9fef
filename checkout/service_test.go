package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db       *gorm.DB
	svc      *Service
	gateway  *fakeGateway
	mailer   *fakeMailer
	notifier *fakeNotifier
	locker   *fakeLocker
	cart     models.Cart
	product  models.Product
	zone     models.Zone
}

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := dbtest.New(t)
	f := &serviceFixture{
		db:       db,
		gateway:  &fakeGateway{session: &PaymentSession{GatewayOrderID: "g-1", Token: "tok", URL: "https://pay.example.com/iframe/9?payment_token=tok"}},
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		locker:   &fakeLocker{},
	}
	f.svc = NewService(db, NewDispatcher(db, f.gateway, f.mailer, quietLogger()), quietLogger(),
		WithLocker(f.locker),
		WithNotifier(f.notifier),
		WithClock(func() time.Time { return fixedNow }),
	)
	f.zone = dbtest.Zone(t, db, "Cairo", "Maadi", "25")
	f.product = dbtest.Product(t, db, "Giant Cookie", "10", 10)
	f.cart = dbtest.GuestCart(t, db)
	dbtest.AddItem(t, db, f.cart.ID, f.product, 5)
	return f
}

func (f *serviceFixture) session() Session {
	return Session{Role: RoleGuest, CartID: f.cart.ID}
}

func (f *serviceFixture) guest() *GuestInfo {
	return guestInfo(uintString(f.zone.ID))
}

func TestService_ConfirmIsReadOnly(t *testing.T) {
	f := newServiceFixture(t)

	conf, err := f.svc.Confirm(context.Background(), ConfirmRequest{Session: f.session(), Guest: f.guest()})
	require.NoError(t, err)

	assert.True(t, dbtest.Money("50").Equal(conf.Snapshot.Subtotal))
	assert.True(t, dbtest.Money("75").Equal(conf.Total))
	assert.Equal(t, "Maadi", conf.DeliveryAddress.ZoneName)

	assert.Zero(t, countRows(t, f.db, &models.Customer{}, ""))
	assert.Zero(t, countRows(t, f.db, &models.Order{}, ""))
	assert.EqualValues(t, 1, countRows(t, f.db, &models.CartItem{}, ""))
}

func TestService_ConfirmReportsStockShortage(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.db.Model(&f.product).Update("stock_quantity", 2).Error)

	_, err := f.svc.Confirm(context.Background(), ConfirmRequest{Session: f.session(), Guest: f.guest()})

	var se *StockUnavailableError
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Items, 1)
	assert.Equal(t, 5, se.Items[0].Requested)
	assert.Equal(t, 2, se.Items[0].Available)
}

func TestService_PayCashOnDelivery(t *testing.T) {
	f := newServiceFixture(t)

	out, err := f.svc.Pay(context.Background(), PayRequest{
		Session:       f.session(),
		PaymentMethod: "cod",
		Guest:         f.guest(),
		DeliveryDate:  "2025-03-15",
	})
	require.NoError(t, err)
	assert.NotZero(t, out.OrderID)
	assert.Empty(t, out.PaymentURL)

	var order models.Order
	require.NoError(t, f.db.First(&order, out.OrderID).Error)
	assert.Equal(t, models.PaymentMethodCash, order.PaymentMethod)
	require.NotNil(t, order.DeliveryDate)
	assert.Equal(t, "2025-03-15", order.DeliveryDate.Format("2006-01-02"))

	require.Len(t, f.notifier.tickets, 1)
	assert.Equal(t, out.OrderID, f.notifier.tickets[0].OrderID)
	assert.Equal(t, "Giant Cookie", f.notifier.tickets[0].Items[0].Name)
	assert.Len(t, f.mailer.sent, 1)
	assert.Empty(t, f.gateway.calls)
	assert.Equal(t, []string{"checkout:cart:" + uintString(f.cart.ID)}, f.locker.released)
}

func TestService_PayIgnoresClientPrices(t *testing.T) {
	f := newServiceFixture(t)
	tampered := decimal.NewFromInt(1)

	out, err := f.svc.Pay(context.Background(), PayRequest{
		Session:       f.session(),
		PaymentMethod: "paymob",
		Guest:         f.guest(),
		OrderData:     &ClientOrderData{Subtotal: &tampered},
	})
	require.NoError(t, err)
	assert.Contains(t, out.PaymentURL, "order_id=")

	require.Len(t, f.gateway.calls, 1)
	assert.True(t, dbtest.Money("75").Equal(f.gateway.calls[0].Amount), f.gateway.calls[0].Amount.String())
	assert.Empty(t, f.notifier.tickets)
}

func TestService_PayGatewayFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.err = errors.New("gateway timeout")

	out, err := f.svc.Pay(context.Background(), PayRequest{Session: f.session(), PaymentMethod: "paymob", Guest: f.guest()})
	assert.Nil(t, out)

	var ext *ExternalServiceError
	require.ErrorAs(t, err, &ext)

	var order models.Order
	require.NoError(t, f.db.First(&order, ext.OrderID).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.PaymentToken)
	assert.Empty(t, f.locker.held, "lock released on failure")
	assert.Empty(t, f.notifier.tickets, "unpaid card order must not reach the kitchen")
}

func TestService_PayRejectsPastDeliveryDate(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		name string
		date string
	}{
		{"yesterday", "2025-03-13"},
		{"garbage", "next tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Pay(context.Background(), PayRequest{
				Session: f.session(), PaymentMethod: "cod", Guest: f.guest(), DeliveryDate: tt.date,
			})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "delivery_date", ve.Field)
		})
	}
	assert.Zero(t, countRows(t, f.db, &models.Order{}, ""))
}

func TestService_PayTodayIsAllowed(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Pay(context.Background(), PayRequest{
		Session: f.session(), PaymentMethod: "cod", Guest: f.guest(), DeliveryDate: "2025-03-14",
	})
	assert.NoError(t, err)
}

func TestService_PayBusyCart(t *testing.T) {
	f := newServiceFixture(t)
	f.locker.held = map[string]bool{"checkout:cart:" + uintString(f.cart.ID): true}

	_, err := f.svc.Pay(context.Background(), PayRequest{Session: f.session(), PaymentMethod: "cod", Guest: f.guest()})
	assert.ErrorIs(t, err, ErrCheckoutBusy)
	assert.Zero(t, countRows(t, f.db, &models.Order{}, ""))
}

func TestService_PayNeedsPaymentMethod(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Pay(context.Background(), PayRequest{Session: f.session(), Guest: f.guest()})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "payment_method", ve.Field)
}
