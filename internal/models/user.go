package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a staff profile. Role is one of admin, barber, receptionist.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BarbershopID uint       `json:"barbershop_id"`
	Barbershop   Barbershop `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barbershop"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'barber'" json:"role"`
	Active       bool   `gorm:"default:true" json:"active"`
	AvatarURL    string `gorm:"size:255" json:"avatar_url"`
	FCMToken     string `gorm:"size:255" json:"-"`

	// Default percentage applied to service lines sold by this barber.
	CommissionRate decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
