package models

import "time"

// TableSession groups customers ordering together at one table. The ID is a
// short shareable code, not an auto-increment.
//
// ActiveTableID mirrors TableID while the session is active and is NULLed on
// end. Its unique index is the authoritative guard for "at most one active
// session per table"; the controller's pre-check is only a fast path.
type TableSession struct {
	ID            string     `gorm:"type:varchar(10);primaryKey" json:"session_id"`
	TableID       uint       `gorm:"not null;index" json:"table_id"`
	Table         Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ActiveTableID *uint      `gorm:"uniqueIndex" json:"-"`
	SessionName   string     `gorm:"type:varchar(100);not null" json:"session_name"`
	HostName      string     `gorm:"type:varchar(100);not null" json:"host_name"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// Expired reports whether the session's expiry timestamp has passed. Expiry is
// evaluated lazily on join/lookup; there is no background sweeper, so an
// expired session may still carry IsActive=true in storage.
func (s *TableSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
