package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/logger"
	"github.com/sugarcrumb/storefront-api/models"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret")

	guest, _, err := iss.IssueGuest("guest_x", 7)
	require.NoError(t, err)
	s, err := iss.Parse(guest)
	require.NoError(t, err)
	assert.Equal(t, checkout.Session{Role: checkout.RoleGuest, CartID: 7}, s)
	assert.False(t, s.Authenticated())

	customer, _, err := iss.IssueCustomer("a@b.co", 9)
	require.NoError(t, err)
	s, err = iss.Parse(customer)
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "a@b.co", s.Email)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	iss := NewIssuer("secret")
	other := NewIssuer("other")

	foreign, _, err := other.IssueGuest("g", 1)
	require.NoError(t, err)
	_, err = iss.Parse(foreign)
	assert.Error(t, err)

	past := NewIssuer("secret")
	past.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, err := past.IssueGuest("g", 1)
	require.NoError(t, err)
	_, err = iss.Parse(expired)
	assert.Error(t, err)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "customer", CartID: 1}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Parse(noEmail)
	assert.ErrorContains(t, err, "without email")

	admin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Parse(admin)
	assert.ErrorContains(t, err, "unknown role")
}

func TestCreateGuestSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	iss := NewIssuer("secret")

	r := gin.New()
	r.POST("/auth/guest", CreateGuestSession(db, iss, logger.NewWithWriter(io.Discard, "error", "text")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GuestID string `json:"guest_id"`
		CartID  uint   `json:"cart_id"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	s, err := iss.Parse(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.CartID, s.CartID)

	var cart models.Cart
	require.NoError(t, db.First(&cart, body.CartID).Error)
	require.NotNil(t, cart.GuestID)
	assert.Equal(t, body.GuestID, *cart.GuestID)
}
