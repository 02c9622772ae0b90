package models

import "time"

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order      Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint     `gorm:"not null" json:"menu_item_id"`
	MenuItem   MenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity   int      `gorm:"not null" json:"quantity"`
	// UnitPrice is the menu price snapshotted at order time; never re-read
	// from the menu afterwards.
	UnitPrice       float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal        float64   `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	SpecialRequests *string   `gorm:"type:text" json:"special_requests,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}
