package checkout

import (
	"context"
	"fmt"
	"sort"

	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
)

// NormalizedCartItem is the stock-relevant view of one cart line.
type NormalizedCartItem struct {
	ProductID uint
	Quantity  int
	IsPack    bool
	PackSize  models.FlavorSize
	Flavors   []FlavorDemand // packs only
}

// FlavorDemand is the effective number of units of a flavor the line consumes.
type FlavorDemand struct {
	FlavorID uint
	Quantity int
}

type StockKind string

const (
	StockKindProduct StockKind = "product"
	StockKindFlavor  StockKind = "flavor"
)

type OutOfStockEntry struct {
	Type      StockKind         `json:"type"`
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Size      models.FlavorSize `json:"size,omitempty"`
	Requested int               `json:"requested"`
	Available int               `json:"available"`
}

func (e OutOfStockEntry) Message() string {
	if e.Type == StockKindFlavor {
		return fmt.Sprintf("%s (%s): requested %d, only %d available", e.Name, e.Size, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s: requested %d, only %d available", e.Name, e.Requested, e.Available)
}

type AvailabilityResult struct {
	IsAvailable     bool              `json:"is_available"`
	OutOfStockItems []OutOfStockEntry `json:"out_of_stock_items"`
}

// Err turns a negative result into a StockUnavailableError.
func (r AvailabilityResult) Err() error {
	if r.IsAvailable {
		return nil
	}
	return &StockUnavailableError{Items: r.OutOfStockItems}
}

type flavorKey struct {
	id   uint
	size models.FlavorSize
}

// CheckAvailability compares the requested quantities against current stock
// and reports every shortage. Demand for the same product, or the same flavor
// at the same size, is summed across lines first. It never writes.
func CheckAvailability(ctx context.Context, db *gorm.DB, items []NormalizedCartItem) (AvailabilityResult, error) {
	productDemand := map[uint]int{}
	flavorDemand := map[flavorKey]int{}

	for _, it := range items {
		if !it.IsPack {
			productDemand[it.ProductID] += it.Quantity
			continue
		}
		for _, f := range it.Flavors {
			flavorDemand[flavorKey{id: f.FlavorID, size: it.PackSize.Tier()}] += f.Quantity
		}
	}

	result := AvailabilityResult{IsAvailable: true, OutOfStockItems: []OutOfStockEntry{}}

	if len(productDemand) > 0 {
		var products []models.Product
		if err := db.WithContext(ctx).Where("id IN ?", keys(productDemand)).Find(&products).Error; err != nil {
			return AvailabilityResult{}, fmt.Errorf("load products: %w", err)
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, id := range sortedKeys(productDemand) {
			requested := productDemand[id]
			p, ok := byID[id]
			if ok && p.StockQuantity >= requested {
				continue
			}
			result.OutOfStockItems = append(result.OutOfStockItems, OutOfStockEntry{
				Type:      StockKindProduct,
				ID:        id,
				Name:      nameOr(p.Name, id),
				Requested: requested,
				Available: p.StockQuantity,
			})
		}
	}

	if len(flavorDemand) > 0 {
		ids := map[uint]int{}
		for k := range flavorDemand {
			ids[k.id] = 0
		}
		var flavors []models.Flavor
		if err := db.WithContext(ctx).Where("id IN ?", keys(ids)).Find(&flavors).Error; err != nil {
			return AvailabilityResult{}, fmt.Errorf("load flavors: %w", err)
		}
		byID := make(map[uint]models.Flavor, len(flavors))
		for _, f := range flavors {
			byID[f.ID] = f
		}

		fkeys := make([]flavorKey, 0, len(flavorDemand))
		for k := range flavorDemand {
			fkeys = append(fkeys, k)
		}
		sort.Slice(fkeys, func(i, j int) bool {
			if fkeys[i].id != fkeys[j].id {
				return fkeys[i].id < fkeys[j].id
			}
			return fkeys[i].size.ID() < fkeys[j].size.ID()
		})

		for _, k := range fkeys {
			requested := flavorDemand[k]
			f, ok := byID[k.id]
			available := 0
			if ok {
				available = f.StockFor(k.size)
			}
			if ok && available >= requested {
				continue
			}
			result.OutOfStockItems = append(result.OutOfStockItems, OutOfStockEntry{
				Type:      StockKindFlavor,
				ID:        k.id,
				Name:      nameOr(f.Name, k.id),
				Size:      k.size,
				Requested: requested,
				Available: available,
			})
		}
	}

	result.IsAvailable = len(result.OutOfStockItems) == 0
	return result, nil
}

func keys(m map[uint]int) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedKeys(m map[uint]int) []uint {
	out := keys(m)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func nameOr(name string, id uint) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
