package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CashRegister struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	BarbershopID uint  `gorm:"index" json:"barbershop_id"`
	OpenedBy     uint  `json:"opened_by"`
	ClosedBy     *uint `json:"closed_by"`

	Status         string          `gorm:"size:20;default:'open'" json:"status"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(12,2)" json:"opening_balance"`

	SalesCount int             `json:"sales_count"`
	TotalSales decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_sales"`
	TotalCash  decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_cash"`
	TotalCard  decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_card"`
	TotalPix   decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_pix"`

	ClosingBalance *decimal.Decimal `gorm:"type:numeric(12,2)" json:"closing_balance"`
	Difference     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"difference"`
	Notes          string           `gorm:"size:255" json:"notes"`

	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at"`
}
