package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerType string

const (
	CustomerTypeGuest      CustomerType = "guest"
	CustomerTypeRegistered CustomerType = "registered"
)

// Customer rows are unique per email regardless of type and letter case.
// Registered rows are written by the identity service and may keep the
// case the user typed, so lookups go through EmailEquals.
type Customer struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Name      string            `json:"name"`
	Email     string            `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Phone     string            `json:"phone"`
	Password  string            `json:"-"`
	Type      CustomerType      `gorm:"type:varchar(20);not null;default:'guest'" json:"type"`
	Addresses []CustomerAddress `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type CustomerAddress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`
	Street         string    `gorm:"not null" json:"street"`
	CityID         uint      `gorm:"not null" json:"city_id"`
	City           City      `json:"city"`
	ZoneID         uint      `gorm:"not null" json:"zone_id"`
	Zone           Zone      `json:"zone"`
	AdditionalInfo *string   `json:"additional_info,omitempty"`
	IsDefault      bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

type City struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Zones []Zone `gorm:"foreignKey:CityID" json:"zones,omitempty"`
}

type Zone struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CityID      uint            `gorm:"index;not null" json:"city_id"`
	City        City            `json:"city"`
	Name        string          `gorm:"not null" json:"name"`
	DeliveryFee decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"delivery_fee"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
}

// NormalizeEmail is the form guest emails are stored in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailEquals scopes a customers query to email, ignoring case.
func EmailEquals(email string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(email) = ?", NormalizeEmail(email))
	}
}
