package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flavor keeps an independent price and stock counter per size tier.
type Flavor struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string          `gorm:"not null" json:"name"`
	Description         string          `json:"description"`
	Image               string          `json:"image"`
	MiniPrice           decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"mini_price"`
	MediumPrice         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"medium_price"`
	LargePrice          decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"large_price"`
	StockQuantityMini   int             `gorm:"not null;default:0" json:"stock_quantity_mini"`
	StockQuantityMedium int             `gorm:"not null;default:0" json:"stock_quantity_medium"`
	StockQuantityLarge  int             `gorm:"not null;default:0" json:"stock_quantity_large"`
	IsActive            bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (f Flavor) PriceFor(size FlavorSize) decimal.Decimal {
	switch size.Tier() {
	case FlavorSizeLarge:
		return f.LargePrice
	case FlavorSizeMedium:
		return f.MediumPrice
	default:
		return f.MiniPrice
	}
}

func (f Flavor) StockFor(size FlavorSize) int {
	switch size.Tier() {
	case FlavorSizeLarge:
		return f.StockQuantityLarge
	case FlavorSizeMedium:
		return f.StockQuantityMedium
	default:
		return f.StockQuantityMini
	}
}

// FlavorStockColumn names the flavors column holding stock for a size tier.
func FlavorStockColumn(size FlavorSize) string {
	switch size.Tier() {
	case FlavorSizeLarge:
		return "stock_quantity_large"
	case FlavorSizeMedium:
		return "stock_quantity_medium"
	default:
		return "stock_quantity_mini"
	}
}
