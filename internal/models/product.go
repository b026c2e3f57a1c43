package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a retail item sold over the counter through a command.
type Product struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `json:"barbershop_id"`

	Name           string          `gorm:"size:100;not null" json:"name"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Stock          int             `json:"stock"`
	CommissionRate decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_rate"`
	Active         bool            `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
