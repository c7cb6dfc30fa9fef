package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string
type InstanceKind string

const (
	// Order statuses (bakery flow)
	OrderStatusPending        OrderStatus = "pending"          // Committed, awaiting payment or kitchen
	OrderStatusConfirmed      OrderStatus = "confirmed"        // Paid online or accepted by staff
	OrderStatusPreparing      OrderStatus = "preparing"        // In the kitchen
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // With the courier
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	// Stored payment methods
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"

	InstanceKindSingle InstanceKind = "single"
	InstanceKindPack   InstanceKind = "pack"
)

type Order struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	OrderRef               string          `gorm:"uniqueIndex;size:64;not null" json:"order_ref"`
	CustomerID             uint            `gorm:"index;not null" json:"customer_id"`
	Customer               Customer        `json:"customer"`
	Items                  []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	DeliveryFee            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"delivery_fee"`
	Total                  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Status                 OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod          PaymentMethod   `gorm:"type:varchar(10);not null" json:"payment_method"`
	PaymentStatus          PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentToken           *string         `gorm:"type:text;index" json:"-"` // gateway correlation token, read by the callback
	GatewayOrderID         *string         `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	DeliveryStreet         string          `json:"delivery_street"`
	DeliveryCity           string          `json:"delivery_city"`
	DeliveryZone           string          `json:"delivery_zone"`
	DeliveryZoneID         uint            `json:"delivery_zone_id"`
	DeliveryAdditionalInfo *string         `json:"delivery_additional_info,omitempty"`
	DeliveryDate           *time.Time      `json:"delivery_date,omitempty"`
	DeliveryTimeSlotID     *uint           `json:"delivery_time_slot_id,omitempty"`
	PromoCodeID            *uint           `json:"promo_code_id,omitempty"`
	Notes                  string          `json:"notes,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"index;not null" json:"order_id"`
	ProductInstanceID uint            `gorm:"not null" json:"product_instance_id"`
	ProductInstance   ProductInstance `json:"product_instance"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Total             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
}

// ProductInstance is one purchased unit: a plain product or a configured pack.
type ProductInstance struct {
	ID        uint                    `gorm:"primaryKey" json:"id"`
	ProductID uint                    `gorm:"index;not null" json:"product_id"`
	Product   Product                 `json:"product"`
	Kind      InstanceKind            `gorm:"type:varchar(10);not null" json:"kind"`
	Flavors   []ProductInstanceFlavor `gorm:"foreignKey:ProductInstanceID;constraint:OnDelete:CASCADE" json:"flavors,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type ProductInstanceFlavor struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	ProductInstanceID uint   `gorm:"index;not null" json:"product_instance_id"`
	FlavorID          uint   `gorm:"not null" json:"flavor_id"`
	Flavor            Flavor `json:"flavor"`
	SizeID            uint   `gorm:"not null" json:"size_id"`
	Size              Size   `gorm:"foreignKey:SizeID" json:"size"`
	Quantity          int    `gorm:"not null" json:"quantity"`
}
