package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the immutable financial record written when a command closes.
type Sale struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`
	CommandID    uint `gorm:"uniqueIndex" json:"command_id"`
	ClientID     uint `json:"client_id"`
	BarberID     uint `json:"barber_id"`

	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"final_amount"`
	PaymentMethod  string          `gorm:"size:20" json:"payment_method"`

	IdempotencyKey string `gorm:"size:36;uniqueIndex" json:"idempotency_key"`
	CashRegisterID *uint  `json:"cash_register_id"`

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items"`

	CreatedAt time.Time `json:"created_at"`
}

type SaleItem struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	SaleID        uint `gorm:"index" json:"sale_id"`
	CommandItemID uint `json:"command_item_id"`

	ItemType   string          `gorm:"size:10" json:"item_type"`
	ServiceID  *uint           `json:"service_id"`
	ProductID  *uint           `json:"product_id"`
	Name       string          `gorm:"size:100" json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price"`
}

type Commission struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	BarbershopID  uint `gorm:"index" json:"barbershop_id"`
	SaleID        uint `gorm:"index" json:"sale_id"`
	SaleItemID    uint `json:"sale_item_id"`
	CommandItemID uint `json:"command_item_id"`
	BarberID      uint `gorm:"index" json:"barber_id"`

	BaseAmount       decimal.Decimal `gorm:"type:numeric(12,2)" json:"base_amount"`
	CommissionRate   decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"commission_amount"`
	Status           string          `gorm:"size:20;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}
