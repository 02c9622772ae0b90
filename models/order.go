package models

import "time"

type Order struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SessionID    string       `gorm:"type:varchar(10);not null;index" json:"session_id"`
	Session      TableSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CustomerName string       `gorm:"type:varchar(100);not null" json:"customer_name"`
	// TotalAmount is fixed at creation from the item subtotals and never
	// recomputed, even if menu prices change later.
	TotalAmount float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	Notes       *string     `gorm:"type:text" json:"notes,omitempty"`
	Status      string      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
}
