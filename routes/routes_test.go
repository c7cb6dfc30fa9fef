package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/auth"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/config"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/kitchen"
	"github.com/sugarcrumb/storefront-api/logger"
	"github.com/sugarcrumb/storefront-api/mailer"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

func newEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	log := logger.NewWithWriter(io.Discard, "error", "text")
	dispatcher := checkout.NewDispatcher(db, nil, mailer.NewLogMailer(log), log)
	hub := kitchen.NewHub(log)

	r := gin.New()
	SetupRoutes(r, Deps{
		DB:         db,
		Config:     &config.Config{AdminAPIKey: "admin-key", Paymob: config.Paymob{Mode: "live"}},
		Log:        log,
		Issuer:     auth.NewIssuer("test-secret"),
		Checkout:   checkout.NewService(db, dispatcher, log, checkout.WithNotifier(hub)),
		Dispatcher: dispatcher,
		Kitchen:    hub,
	})
	return r, db
}

func call(r *gin.Engine, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGuestCheckoutFlow(t *testing.T) {
	r, db := newEngine(t)
	zone := dbtest.Zone(t, db, "Cairo", "Maadi", "25")
	p := dbtest.Product(t, db, "Giant Cookie", "10", 10)

	w := call(r, http.MethodPost, "/auth/guest", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		Token  string `json:"token"`
		CartID uint   `json:"cart_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	w = call(r, http.MethodPost, "/cart", session.Token, fmt.Sprintf(`{"product_id":%d,"quantity":3}`, p.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	guest := fmt.Sprintf(`{"guest":{"name":"Nour","email":"nour@example.com","phone":"0100","address":"12 Tahrir","city":"Cairo","zone":"%d"}}`, zone.ID)
	w = call(r, http.MethodPost, "/checkout/confirm", session.Token, guest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total":"55"`)

	pay := strings.Replace(guest, `{"guest"`, `{"payment_method":"cod","guest"`, 1)
	w = call(r, http.MethodPost, "/checkout/payment", session.Token, pay)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, db.First(&order).Error)
	assert.Equal(t, models.PaymentMethodCash, order.PaymentMethod)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 7, reloaded.StockQuantity)

	w = call(r, http.MethodGet, "/admin/orders", "", "", "X-API-KEY", "admin-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), order.OrderRef)
}

func TestRouteProtection(t *testing.T) {
	r, _ := newEngine(t)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/catalog/products", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/cart", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/checkout/payment", "garbage", "{}").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/admin/orders", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/admin/orders", "", "", "X-API-KEY", "wrong").Code)

	w := call(r, http.MethodPost, "/auth/guest", "", "")
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/customer/addresses", session.Token, "").Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/orders/1", session.Token, "").Code)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/payment/paymob/callback", "", `{"type":"TRANSACTION","obj":{"id":1}}`).Code)
}
