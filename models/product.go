package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	BasePrice     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"base_price"`
	IsPack        bool            `gorm:"not null;default:false" json:"is_pack"`
	Count         int             `gorm:"not null;default:1" json:"count"` // units per pack
	FlavorSize    FlavorSize      `gorm:"type:varchar(10)" json:"flavor_size,omitempty"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"` // ignored for packs
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	SortOrder     int             `json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
