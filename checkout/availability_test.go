package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/models"
)

func TestCheckAvailability_PackFlavorAgainstTierStock(t *testing.T) {
	db := dbtest.New(t)
	f := dbtest.Flavor(t, db, "Chocolate Chip", "1", "2", "3", dbtest.FlavorStock{Mini: 100, Medium: 100, Large: 4})

	tests := []struct {
		name      string
		requested int
		available bool
	}{
		{"below stock", 3, true},
		{"equal to stock", 4, true},
		{"one over stock", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CheckAvailability(context.Background(), db, []NormalizedCartItem{{
				ProductID: 99,
				Quantity:  1,
				IsPack:    true,
				PackSize:  models.FlavorSizeLarge,
				Flavors:   []FlavorDemand{{FlavorID: f.ID, Quantity: tt.requested}},
			}})
			require.NoError(t, err)
			assert.Equal(t, tt.available, res.IsAvailable)
			if !tt.available {
				require.Len(t, res.OutOfStockItems, 1)
				assert.Equal(t, StockKindFlavor, res.OutOfStockItems[0].Type)
				assert.Equal(t, 4, res.OutOfStockItems[0].Available)
				assert.Equal(t, tt.requested, res.OutOfStockItems[0].Requested)
			}
		})
	}
}

// A large pack bought twice: A is stored as 6 units (3 per pack), B as 4.
func TestCheckAvailability_LargePackFlagsOnlyShortFlavor(t *testing.T) {
	db := dbtest.New(t)
	a := dbtest.Flavor(t, db, "Red Velvet", "1", "2", "3", dbtest.FlavorStock{Large: 4})
	b := dbtest.Flavor(t, db, "Oatmeal", "1", "2", "3", dbtest.FlavorStock{Large: 10})
	pack := dbtest.Pack(t, db, "Box of 5", "20", 5, models.FlavorSizeLarge)
	cart := dbtest.GuestCart(t, db)
	dbtest.AddPack(t, db, cart.ID, pack, 2,
		dbtest.PackFlavor{Flavor: a, Quantity: 6},
		dbtest.PackFlavor{Flavor: b, Quantity: 4},
	)

	snap, err := BuildSnapshot(context.Background(), db, cart.ID)
	require.NoError(t, err)

	res, err := CheckAvailability(context.Background(), db, snap.Normalize())
	require.NoError(t, err)

	assert.False(t, res.IsAvailable)
	require.Len(t, res.OutOfStockItems, 1)
	entry := res.OutOfStockItems[0]
	assert.Equal(t, StockKindFlavor, entry.Type)
	assert.Equal(t, a.ID, entry.ID)
	assert.Equal(t, models.FlavorSizeLarge, entry.Size)
	assert.Equal(t, 6, entry.Requested)
	assert.Equal(t, 4, entry.Available)
}

func TestCheckAvailability_ReportsEveryShortage(t *testing.T) {
	db := dbtest.New(t)
	cookie := dbtest.Product(t, db, "Giant Cookie", "5", 1)
	brownie := dbtest.Product(t, db, "Brownie", "4", 0)
	ok := dbtest.Product(t, db, "Milk", "1", 50)
	f := dbtest.Flavor(t, db, "Lemon", "1", "2", "3", dbtest.FlavorStock{Mini: 2})

	res, err := CheckAvailability(context.Background(), db, []NormalizedCartItem{
		{ProductID: cookie.ID, Quantity: 3},
		{ProductID: brownie.ID, Quantity: 1},
		{ProductID: ok.ID, Quantity: 2},
		{ProductID: 1, IsPack: true, Quantity: 1, PackSize: models.FlavorSizeMini, Flavors: []FlavorDemand{{FlavorID: f.ID, Quantity: 5}}},
	})
	require.NoError(t, err)

	assert.False(t, res.IsAvailable)
	require.Len(t, res.OutOfStockItems, 3)
	assert.Equal(t, cookie.ID, res.OutOfStockItems[0].ID)
	assert.Equal(t, brownie.ID, res.OutOfStockItems[1].ID)
	assert.Equal(t, f.ID, res.OutOfStockItems[2].ID)

	var se *StockUnavailableError
	require.ErrorAs(t, res.Err(), &se)
	assert.Len(t, se.Items, 3)
	assert.Contains(t, se.Error(), "Giant Cookie: requested 3, only 1 available")
	assert.Contains(t, se.Error(), "Lemon (Mini): requested 5, only 2 available")
}

func TestCheckAvailability_SumsDemandAcrossLines(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.Product(t, db, "Cupcake", "2", 5)
	f := dbtest.Flavor(t, db, "Vanilla", "1", "2", "3", dbtest.FlavorStock{Medium: 5})

	res, err := CheckAvailability(context.Background(), db, []NormalizedCartItem{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 3},
		{ProductID: 7, IsPack: true, Quantity: 1, PackSize: models.FlavorSizeMedium, Flavors: []FlavorDemand{{FlavorID: f.ID, Quantity: 3}}},
		{ProductID: 8, IsPack: true, Quantity: 1, PackSize: models.FlavorSizeMedium, Flavors: []FlavorDemand{{FlavorID: f.ID, Quantity: 2}}},
	})
	require.NoError(t, err)

	require.Len(t, res.OutOfStockItems, 1)
	assert.Equal(t, StockKindProduct, res.OutOfStockItems[0].Type)
	assert.Equal(t, 6, res.OutOfStockItems[0].Requested)
}

func TestCheckAvailability_MissingProductIsUnavailable(t *testing.T) {
	db := dbtest.New(t)

	res, err := CheckAvailability(context.Background(), db, []NormalizedCartItem{{ProductID: 404, Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, res.OutOfStockItems, 1)
	assert.Equal(t, "#404", res.OutOfStockItems[0].Name)
	assert.Equal(t, 0, res.OutOfStockItems[0].Available)
}

func TestCheckAvailability_DoesNotWrite(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.Product(t, db, "Scone", "3", 2)

	_, err := CheckAvailability(context.Background(), db, []NormalizedCartItem{{ProductID: p.ID, Quantity: 10}})
	require.NoError(t, err)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 2, reloaded.StockQuantity)
}
