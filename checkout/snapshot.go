package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

type PricedFlavor struct {
	FlavorID  uint              `json:"flavor_id"`
	Name      string            `json:"name"`
	Size      models.FlavorSize `json:"size"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

type PricedItem struct {
	CartItemID    uint              `json:"cart_item_id"`
	ProductID     uint              `json:"product_id"`
	Name          string            `json:"name"`
	IsPack        bool              `json:"is_pack"`
	PackSize      models.FlavorSize `json:"pack_size,omitempty"`
	Quantity      int               `json:"quantity"`
	BasePrice     decimal.Decimal   `json:"base_price"`
	Flavors       []PricedFlavor    `json:"flavors,omitempty"`
	FlavorDetails string            `json:"flavor_details,omitempty"`
	Total         decimal.Decimal   `json:"total"`
}

// UnitPrice is the line total spread over its quantity.
func (it PricedItem) UnitPrice() decimal.Decimal {
	if it.Quantity <= 0 {
		return it.Total
	}
	return it.Total.Div(decimal.NewFromInt(int64(it.Quantity))).Round(2)
}

// Snapshot is a priced, read-only view of a cart at one point in time.
type Snapshot struct {
	CartID    uint            `json:"cart_id"`
	Items     []PricedItem    `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// Normalize returns the stock demand of the snapshot.
func (s *Snapshot) Normalize() []NormalizedCartItem {
	out := make([]NormalizedCartItem, 0, len(s.Items))
	for _, it := range s.Items {
		n := NormalizedCartItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			IsPack:    it.IsPack,
			PackSize:  it.PackSize,
		}
		for _, f := range it.Flavors {
			n.Flavors = append(n.Flavors, FlavorDemand{FlavorID: f.FlavorID, Quantity: f.Quantity})
		}
		out = append(out, n)
	}
	return out
}

// BuildSnapshot prices every active line of the cart:
//
//	item.total = basePrice*quantity + Σ(flavorPrice*flavorQuantity)
//
// where flavorPrice is taken from the pack's size tier. It does not mutate.
func BuildSnapshot(ctx context.Context, db *gorm.DB, cartID uint) (*Snapshot, error) {
	var cart models.Cart
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("cart_items.id") }).
		Preload("Items.Product").
		Preload("Items.Flavors", func(tx *gorm.DB) *gorm.DB { return tx.Order("cart_item_flavors.id") }).
		Preload("Items.Flavors.Flavor").
		First(&cart, cartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrCartNotFound, cartID)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %d: %w", cartID, err)
	}

	snap := &Snapshot{CartID: cart.ID, Items: []PricedItem{}, Subtotal: decimal.Zero}
	for _, ci := range cart.Items {
		if ci.Product.ID == 0 || !ci.Product.IsActive || ci.Quantity <= 0 {
			continue
		}
		item := priceItem(ci)
		snap.Items = append(snap.Items, item)
		snap.Subtotal = snap.Subtotal.Add(item.Total)
		snap.ItemCount += item.Quantity
	}

	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}
	snap.Subtotal = snap.Subtotal.Round(2)
	return snap, nil
}

func priceItem(ci models.CartItem) PricedItem {
	p := ci.Product
	item := PricedItem{
		CartItemID: ci.ID,
		ProductID:  p.ID,
		Name:       p.Name,
		IsPack:     p.IsPack,
		Quantity:   ci.Quantity,
		BasePrice:  p.BasePrice,
	}
	total := p.BasePrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))

	if p.IsPack {
		item.PackSize = p.FlavorSize.Tier()
		details := make([]string, 0, len(ci.Flavors))
		for _, cf := range ci.Flavors {
			unit := cf.Flavor.PriceFor(item.PackSize)
			sub := unit.Mul(decimal.NewFromInt(int64(cf.Quantity)))
			item.Flavors = append(item.Flavors, PricedFlavor{
				FlavorID:  cf.FlavorID,
				Name:      cf.Flavor.Name,
				Size:      item.PackSize,
				Quantity:  cf.Quantity,
				UnitPrice: unit,
				Subtotal:  sub,
			})
			total = total.Add(sub)
			details = append(details, fmt.Sprintf("%s (%dx)", cf.Flavor.Name, cf.Quantity))
		}
		item.FlavorDetails = strings.Join(details, ", ")
	}

	item.Total = total.Round(2)
	return item
}
