// Package report aggregates closed sales into commission and payment
// summaries for a period.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// Source is the read side of the ledger used here.
type Source interface {
	ListSales(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Sale, error)
	ListCommissions(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Commission, error)
	GetBarber(ctx context.Context, barbershopID, barberID uint) (*models.User, error)
}

type BarberCommission struct {
	BarberID   uint            `json:"barber_id"`
	BarberName string          `json:"barber_name"`
	Items      int             `json:"items"`
	Base       decimal.Decimal `json:"base_amount"`
	Commission decimal.Decimal `json:"commission_amount"`
}

type CommissionReport struct {
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Barbers []BarberCommission `json:"barbers"`
	Total   decimal.Decimal    `json:"total"`
}

type MethodTotal struct {
	Method string          `json:"payment_method"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type SalesReport struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Count     int             `json:"count"`
	Gross     decimal.Decimal `json:"gross"`
	Discounts decimal.Decimal `json:"discounts"`
	Net       decimal.Decimal `json:"net"`
	Methods   []MethodTotal   `json:"methods"`
}

type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

func validPeriod(from, to time.Time) error {
	if !to.After(from) {
		return httperr.ErrBusiness("invalid_period")
	}
	return nil
}

// Commissions groups commission rows per barber. A barber only sees their
// own line.
func (s *Service) Commissions(ctx context.Context, actor staff.Actor, from, to time.Time) (*CommissionReport, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}

	rows, err := s.src.ListCommissions(ctx, actor.BarbershopID, from, to)
	if err != nil {
		return nil, err
	}

	byBarber := make(map[uint]*BarberCommission)
	for _, r := range rows {
		if !actor.CanActFor(r.BarberID) {
			continue
		}
		bc, ok := byBarber[r.BarberID]
		if !ok {
			bc = &BarberCommission{BarberID: r.BarberID}
			byBarber[r.BarberID] = bc
		}
		bc.Items++
		bc.Base = bc.Base.Add(r.BaseAmount)
		bc.Commission = bc.Commission.Add(r.CommissionAmount)
	}

	out := &CommissionReport{From: from, To: to, Barbers: []BarberCommission{}, Total: decimal.Zero}
	for id, bc := range byBarber {
		if u, err := s.src.GetBarber(ctx, actor.BarbershopID, id); err == nil {
			bc.BarberName = u.Name
		}
		bc.Base = ledger.Cents(bc.Base)
		bc.Commission = ledger.Cents(bc.Commission)
		out.Barbers = append(out.Barbers, *bc)
		out.Total = out.Total.Add(bc.Commission)
	}
	sort.Slice(out.Barbers, func(i, j int) bool {
		return out.Barbers[i].BarberID < out.Barbers[j].BarberID
	})
	return out, nil
}

var methodOrder = []ledger.PaymentMethod{
	ledger.PaymentCash,
	ledger.PaymentCreditCard,
	ledger.PaymentDebitCard,
	ledger.PaymentPix,
}

func (s *Service) Sales(ctx context.Context, actor staff.Actor, from, to time.Time) (*SalesReport, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}

	sales, err := s.src.ListSales(ctx, actor.BarbershopID, from, to)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*MethodTotal, len(methodOrder))
	for _, m := range methodOrder {
		totals[string(m)] = &MethodTotal{Method: string(m), Total: decimal.Zero}
	}

	out := &SalesReport{From: from, To: to, Gross: decimal.Zero, Discounts: decimal.Zero, Net: decimal.Zero}
	for _, sale := range sales {
		out.Count++
		out.Gross = out.Gross.Add(sale.TotalAmount)
		out.Discounts = out.Discounts.Add(sale.DiscountAmount)
		out.Net = out.Net.Add(sale.FinalAmount)

		mt, ok := totals[sale.PaymentMethod]
		if !ok {
			mt = &MethodTotal{Method: sale.PaymentMethod, Total: decimal.Zero}
			totals[sale.PaymentMethod] = mt
		}
		mt.Count++
		mt.Total = mt.Total.Add(sale.FinalAmount)
	}

	for _, m := range methodOrder {
		out.Methods = append(out.Methods, *totals[string(m)])
		delete(totals, string(m))
	}
	// métodos legados fora da lista atual
	for _, mt := range totals {
		out.Methods = append(out.Methods, *mt)
	}
	return out, nil
}
