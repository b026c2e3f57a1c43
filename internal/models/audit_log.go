package models

import "time"

// AuditLog is one row of the trail. Metadata holds the event's JSON payload.
type AuditLog struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	BarbershopID uint  `gorm:"index:idx_audit_shop_created,priority:1;not null" json:"barbershop_id"`
	UserID       *uint `gorm:"index" json:"user_id"`

	Action   string `gorm:"size:50;not null;index" json:"action"`
	Entity   string `gorm:"size:50" json:"entity"`
	EntityID *uint  `json:"entity_id"`
	Metadata string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `gorm:"index:idx_audit_shop_created,priority:2" json:"created_at"`
}
