package models

import "time"

// SessionCustomer is an ephemeral membership record. Rows are created on
// join/create, never mutated, and deleted en masse when the session ends.
type SessionCustomer struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SessionID    string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_session_name" json:"session_id"`
	Session      TableSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CustomerName string       `gorm:"type:varchar(100);not null;uniqueIndex:idx_session_name" json:"customer_name"`
	IsHost       bool         `gorm:"not null;default:false" json:"is_host"`
	JoinedAt     time.Time    `gorm:"not null" json:"joined_at"`
}
