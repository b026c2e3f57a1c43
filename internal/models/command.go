package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Command is an open tab for one client visit. TotalAmount caches the sum of
// the item totals and is rewritten on every item change. An appointment has
// at most one command.
type Command struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BarbershopID  uint   `gorm:"index" json:"barbershop_id"`
	AppointmentID *uint  `gorm:"uniqueIndex" json:"appointment_id"`
	ClientID      uint   `json:"client_id"`
	Client        Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client"`
	BarberID      uint   `json:"barber_id"`

	Status      string          `gorm:"size:20;default:'open'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`
	Notes       string          `gorm:"size:255" json:"notes"`

	Items []CommandItem `gorm:"foreignKey:CommandID" json:"items"`

	ClosedAt *time.Time `json:"closed_at"`
	SaleID   *uint      `json:"sale_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommandItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CommandID uint `gorm:"index" json:"command_id"`

	ItemType  string `gorm:"size:10" json:"item_type"`
	ServiceID *uint  `json:"service_id"`
	ProductID *uint  `json:"product_id"`
	BarberID  uint   `json:"barber_id"`
	Name      string `gorm:"size:100" json:"name"`

	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price"`
	CommissionRate   decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"commission_amount"`

	// Set when the line was covered by a client subscription.
	ClientSubscriptionID *uint `json:"client_subscription_id"`

	CreatedAt time.Time `json:"created_at"`
}
