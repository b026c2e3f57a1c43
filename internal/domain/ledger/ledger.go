// Package ledger holds the money rules of commands, sales and commissions.
// Every amount is a decimal rounded to cents.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ===============================
// Command status / item type
// ===============================

const (
	CommandOpen   = "open"
	CommandClosed = "closed"

	ItemService = "service"
	ItemProduct = "product"
)

// ===============================
// Totals
// ===============================

func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Cents(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// CommandTotal re-sums the item totals. The stored Command.TotalAmount must
// always equal this value.
func CommandTotal(items []models.CommandItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return Cents(total)
}

// Commission is base * rate / 100.
func Commission(base, rate decimal.Decimal) decimal.Decimal {
	return Cents(base.Mul(rate).Div(hundred))
}

// FinalAmount applies a discount to a command total.
func FinalAmount(total, discount decimal.Decimal) (decimal.Decimal, error) {
	if discount.IsNegative() {
		return decimal.Zero, httperr.ErrBusiness("invalid_discount")
	}
	if discount.GreaterThan(total) {
		return decimal.Zero, httperr.ErrBusiness("discount_exceeds_total")
	}
	return Cents(total.Sub(discount)), nil
}

func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return httperr.ErrBusiness("invalid_commission_rate")
	}
	return nil
}

// PriceLine fills the money fields of an item from its unit price, quantity
// and commission rate.
func PriceLine(it *models.CommandItem) error {
	if it.Quantity <= 0 {
		return httperr.ErrBusiness("invalid_quantity")
	}
	if it.UnitPrice.IsNegative() {
		return httperr.ErrBusiness("invalid_price")
	}
	if err := ValidateRate(it.CommissionRate); err != nil {
		return err
	}

	it.UnitPrice = Cents(it.UnitPrice)
	it.TotalPrice = LineTotal(it.UnitPrice, it.Quantity)
	it.CommissionAmount = Commission(it.TotalPrice, it.CommissionRate)
	return nil
}
