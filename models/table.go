package models

import "time"

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index;uniqueIndex:idx_restaurant_table" json:"restaurant_id"`
	TableNumber  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_restaurant_table" json:"table_number"`
	Capacity     int       `gorm:"not null;default:4" json:"capacity"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	QRCode       string    `gorm:"type:varchar(100);unique;not null" json:"qr_code"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
