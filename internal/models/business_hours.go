package models

import "time"

// BusinessHours holds the opening window of a barbershop for one weekday (0 = Sunday).
type BusinessHours struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"uniqueIndex:idx_shop_weekday" json:"barbershop_id"`
	Weekday      int  `gorm:"uniqueIndex:idx_shop_weekday" json:"weekday"`

	OpenTime  string `gorm:"size:5" json:"open_time"`
	CloseTime string `gorm:"size:5" json:"close_time"`
	Closed    bool   `json:"closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
