package models

import "time"

// Cart belongs either to a registered customer or to a guest session.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID *uint      `gorm:"uniqueIndex" json:"customer_id,omitempty"` // one cart per customer
	GuestID    *string    `gorm:"uniqueIndex;size:64" json:"guest_id,omitempty"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"index;not null" json:"cart_id"`
	ProductID uint             `gorm:"not null" json:"product_id"`
	Product   Product          `json:"product"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	Flavors   []CartItemFlavor `gorm:"foreignKey:CartItemID;constraint:OnDelete:CASCADE" json:"flavors,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartItemFlavor is one flavor of a pack line. Quantity is the total number of
// units of this flavor for the whole line, already multiplied by the line quantity.
type CartItemFlavor struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CartItemID uint       `gorm:"index;not null" json:"cart_item_id"`
	FlavorID   uint       `gorm:"not null" json:"flavor_id"`
	Flavor     Flavor     `json:"flavor"`
	Quantity   int        `gorm:"not null" json:"quantity"`
	Size       FlavorSize `gorm:"type:varchar(10);not null" json:"size"`
}
