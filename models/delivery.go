package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode and DeliveryTimeSlot are captured on orders by id only; checkout
// does not validate them.
type PromoCode struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percent"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
}

type DeliveryTimeSlot struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Label     string `gorm:"not null" json:"label"`
	StartTime string `gorm:"size:5;not null" json:"start_time"` // HH:MM
	EndTime   string `gorm:"size:5;not null" json:"end_time"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
	SortOrder int    `json:"sort_order"`
}
