package userControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/checkout"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/middleware"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

func newRouter(db *gorm.DB, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetSession(c, checkout.Session{Role: checkout.RoleCustomer, Email: email})
	})
	r.GET("/customer/addresses", GetAddresses(db))
	r.GET("/admin/customers", GetAllCustomers(db))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetAddresses(t *testing.T) {
	db := dbtest.New(t)
	zone := dbtest.Zone(t, db, "Cairo", "Maadi", "25")
	nour := dbtest.Customer(t, db, "Nour", "nour@example.com", models.CustomerTypeRegistered)
	omar := dbtest.Customer(t, db, "Omar", "omar@example.com", models.CustomerTypeRegistered)
	dbtest.Address(t, db, nour.ID, zone, "12 Tahrir")
	dbtest.Address(t, db, omar.ID, zone, "3 Road 9")

	w := get(newRouter(db, "NOUR@example.com"), "/customer/addresses")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var addrs []models.CustomerAddress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &addrs))
	require.Len(t, addrs, 1)
	assert.Equal(t, "12 Tahrir", addrs[0].Street)
	assert.Equal(t, "Maadi", addrs[0].Zone.Name)
	assert.Equal(t, "Cairo", addrs[0].City.Name)

	w = get(newRouter(db, "nobody@example.com"), "/customer/addresses")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAddresses_EmptyList(t *testing.T) {
	db := dbtest.New(t)
	dbtest.Customer(t, db, "Nour", "nour@example.com", models.CustomerTypeRegistered)

	w := get(newRouter(db, "nour@example.com"), "/customer/addresses")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetAllCustomers(t *testing.T) {
	db := dbtest.New(t)
	dbtest.Customer(t, db, "Nour", "nour@example.com", models.CustomerTypeRegistered)
	dbtest.Customer(t, db, "Guest", "guest@example.com", models.CustomerTypeGuest)
	r := newRouter(db, "")

	var all []models.Customer
	w := get(r, "/admin/customers")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	var guests []models.Customer
	w = get(r, "/admin/customers?type=guest")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &guests))
	require.Len(t, guests, 1)
	assert.Equal(t, "guest@example.com", guests[0].Email)
}
