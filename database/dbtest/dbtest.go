// Package dbtest opens throwaway in-memory databases carrying the production
// schema, plus fixture builders shared by package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/database"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated SQLite database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

// Product creates a plain, non-pack product.
func Product(t testing.TB, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		BasePrice:     Money(price),
		Count:         1,
		StockQuantity: stock,
		IsActive:      true,
	}
	must(t, db.Create(&p).Error)
	return p
}

// Pack creates a pack product of count units at the given size.
func Pack(t testing.TB, db *gorm.DB, name, price string, count int, size models.FlavorSize) models.Product {
	t.Helper()
	p := models.Product{
		Name:       name,
		BasePrice:  Money(price),
		IsPack:     true,
		Count:      count,
		FlavorSize: size,
		IsActive:   true,
	}
	must(t, db.Create(&p).Error)
	return p
}

// FlavorStock holds stock per tier for Flavor.
type FlavorStock struct {
	Mini, Medium, Large int
}

// Flavor creates a flavor priced mini/medium/large.
func Flavor(t testing.TB, db *gorm.DB, name string, mini, medium, large string, stock FlavorStock) models.Flavor {
	t.Helper()
	f := models.Flavor{
		Name:                name,
		MiniPrice:           Money(mini),
		MediumPrice:         Money(medium),
		LargePrice:          Money(large),
		StockQuantityMini:   stock.Mini,
		StockQuantityMedium: stock.Medium,
		StockQuantityLarge:  stock.Large,
		IsActive:            true,
	}
	must(t, db.Create(&f).Error)
	return f
}

// Zone creates a city (if needed) and a delivery zone in it.
func Zone(t testing.TB, db *gorm.DB, city, zone, fee string) models.Zone {
	t.Helper()
	c := models.City{Name: city}
	must(t, db.Where(models.City{Name: city}).FirstOrCreate(&c).Error)

	z := models.Zone{CityID: c.ID, Name: zone, DeliveryFee: Money(fee), IsActive: true}
	must(t, db.Create(&z).Error)
	z.City = c
	return z
}

func Customer(t testing.TB, db *gorm.DB, name, email string, typ models.CustomerType) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, Email: email, Phone: "01000000000", Type: typ}
	must(t, db.Create(&c).Error)
	return c
}

func Address(t testing.TB, db *gorm.DB, customerID uint, zone models.Zone, street string) models.CustomerAddress {
	t.Helper()
	a := models.CustomerAddress{
		CustomerID: customerID,
		Street:     street,
		CityID:     zone.CityID,
		ZoneID:     zone.ID,
	}
	must(t, db.Create(&a).Error)
	return a
}

// GuestCart creates an empty cart owned by a guest session.
func GuestCart(t testing.TB, db *gorm.DB) models.Cart {
	t.Helper()
	guestID := "guest_" + uuid.NewString()
	c := models.Cart{GuestID: &guestID}
	must(t, db.Create(&c).Error)
	return c
}

func CustomerCart(t testing.TB, db *gorm.DB, customerID uint) models.Cart {
	t.Helper()
	c := models.Cart{CustomerID: &customerID}
	must(t, db.Create(&c).Error)
	return c
}

// AddItem puts a plain product line into the cart.
func AddItem(t testing.TB, db *gorm.DB, cartID uint, p models.Product, qty int) models.CartItem {
	t.Helper()
	item := models.CartItem{CartID: cartID, ProductID: p.ID, Quantity: qty, AddedAt: time.Now()}
	must(t, db.Create(&item).Error)
	return item
}

// PackFlavor is one flavor row of a pack line; Quantity is the line total.
type PackFlavor struct {
	Flavor   models.Flavor
	Quantity int
}

// AddPack puts a pack line with its flavor composition into the cart.
func AddPack(t testing.TB, db *gorm.DB, cartID uint, p models.Product, qty int, flavors ...PackFlavor) models.CartItem {
	t.Helper()
	item := models.CartItem{CartID: cartID, ProductID: p.ID, Quantity: qty, AddedAt: time.Now()}
	for _, f := range flavors {
		item.Flavors = append(item.Flavors, models.CartItemFlavor{
			FlavorID: f.Flavor.ID,
			Quantity: f.Quantity,
			Size:     p.FlavorSize,
		})
	}
	must(t, db.Create(&item).Error)
	return item
}
