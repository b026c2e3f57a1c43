package models

import "time"

type Barbershop struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Slug              string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone             string    `gorm:"size:20" json:"phone"`
	Address           string    `gorm:"size:255" json:"address"`
	Timezone          string    `gorm:"size:60" json:"timezone"`
	LogoURL           string    `gorm:"size:255" json:"logo_url"`
	MinAdvanceMinutes int       `gorm:"default:120" json:"min_advance_minutes"`
	SlotMinutes       int       `gorm:"default:15" json:"slot_minutes"`
	Active            bool      `gorm:"default:true" json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
