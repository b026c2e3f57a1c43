package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	Name                 string          `gorm:"size:100;not null" json:"name"`
	MonthlyPrice         decimal.Decimal `gorm:"type:numeric(12,2)" json:"monthly_price"`
	IncludedServices     int             `json:"included_services"`
	CommissionPercentage decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_percentage"`
	Active               bool            `gorm:"default:true" json:"active"`

	Services []Service `gorm:"many2many:plan_services;" json:"services"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientSubscription struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`
	ClientID     uint `gorm:"index" json:"client_id"`

	PlanID uint             `json:"plan_id"`
	Plan   SubscriptionPlan `json:"plan"`

	Status            string `gorm:"size:20;default:'pending_payment'" json:"status"`
	RemainingServices int    `json:"remaining_services"`

	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	// meses pagos adiantado, aplicados quando o período atual termina
	PrepaidPeriods int `gorm:"not null;default:0" json:"prepaid_periods"`

	PaymentReference string `gorm:"size:64;index" json:"payment_reference"`
	LastPaymentID    string `gorm:"size:64" json:"last_payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionPayment records one approved charge. PaymentID is unique so a
// repeated gateway notification is applied once.
type SubscriptionPayment struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	BarbershopID   uint `gorm:"index" json:"barbershop_id"`
	SubscriptionID uint `gorm:"index" json:"subscription_id"`
	PlanID         uint `json:"plan_id"`

	PaymentID string          `gorm:"size:64;uniqueIndex" json:"payment_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PaidAt    time.Time       `gorm:"index" json:"paid_at"`
}
