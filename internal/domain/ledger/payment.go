package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPix        PaymentMethod = "pix"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix:
		return PaymentMethod(s), nil
	}
	return "", httperr.ErrBusiness("invalid_payment_method")
}

// ApplySale adds a sale to the running totals of an open register.
func ApplySale(reg *models.CashRegister, amount decimal.Decimal, method PaymentMethod) {
	reg.SalesCount++
	reg.TotalSales = Cents(reg.TotalSales.Add(amount))

	switch method {
	case PaymentCash:
		reg.TotalCash = Cents(reg.TotalCash.Add(amount))
	case PaymentCreditCard, PaymentDebitCard:
		reg.TotalCard = Cents(reg.TotalCard.Add(amount))
	case PaymentPix:
		reg.TotalPix = Cents(reg.TotalPix.Add(amount))
	}
}

// ExpectedCash is what the drawer should hold: opening balance plus cash sales.
func ExpectedCash(reg *models.CashRegister) decimal.Decimal {
	return Cents(reg.OpeningBalance.Add(reg.TotalCash))
}

const (
	RegisterOpen   = "open"
	RegisterClosed = "closed"
)
