package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc   *Service
	shop  models.Barbershop
	ana   models.User
	bruno models.User
	caio  models.User
	from  time.Time
	to    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{svc: NewService(repository.NewLedgerGormRepository(db))}

	create := func(v any) {
		t.Helper()
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("create %T: %v", v, err)
		}
	}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	create(&f.shop)
	f.ana = models.User{BarbershopID: f.shop.ID, Name: "Ana", Email: "ana@navalha.test", PasswordHash: "x", Role: "admin", Active: true}
	f.bruno = models.User{BarbershopID: f.shop.ID, Name: "Bruno", Email: "bruno@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	f.caio = models.User{BarbershopID: f.shop.ID, Name: "Caio", Email: "caio@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	create(&f.ana)
	create(&f.bruno)
	create(&f.caio)

	sale := func(cmdID uint, barberID uint, total, discount, final, method string) models.Sale {
		s := models.Sale{
			BarbershopID:   f.shop.ID,
			CommandID:      cmdID,
			BarberID:       barberID,
			TotalAmount:    dec(total),
			DiscountAmount: dec(discount),
			FinalAmount:    dec(final),
			PaymentMethod:  method,
			IdempotencyKey: fmt.Sprintf("key-%d", cmdID),
		}
		create(&s)
		return s
	}

	s1 := sale(1, f.bruno.ID, "80", "10", "70", "pix")
	s2 := sale(2, f.caio.ID, "50", "0", "50", "cash")
	sale(3, f.bruno.ID, "25", "0", "25", "pix")

	commission := func(saleID, barberID uint, base, rate, amount string) {
		create(&models.Commission{
			BarbershopID:     f.shop.ID,
			SaleID:           saleID,
			BarberID:         barberID,
			BaseAmount:       dec(base),
			CommissionRate:   dec(rate),
			CommissionAmount: dec(amount),
		})
	}
	commission(s1.ID, f.bruno.ID, "50", "40", "20")
	commission(s1.ID, f.bruno.ID, "30", "40", "12")
	commission(s2.ID, f.caio.ID, "50", "50", "25")

	f.from = time.Now().Add(-time.Hour)
	f.to = time.Now().Add(time.Hour)
	return f
}

func (f *fixture) admin() staff.Actor {
	return staff.Actor{UserID: f.ana.ID, BarbershopID: f.shop.ID, Role: staff.RoleAdmin}
}

func TestCommissionsPerBarber(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Commissions(t.Context(), f.admin(), f.from, f.to)
	if err != nil {
		t.Fatalf("commissions: %v", err)
	}
	if len(rep.Barbers) != 2 {
		t.Fatalf("expected 2 barbers got %d", len(rep.Barbers))
	}

	bruno := rep.Barbers[0]
	if bruno.BarberName != "Bruno" || bruno.Items != 2 || !bruno.Base.Equal(dec("80")) || !bruno.Commission.Equal(dec("32")) {
		t.Fatalf("unexpected bruno line %+v", bruno)
	}
	if !rep.Total.Equal(dec("57")) {
		t.Fatalf("expected total 57 got %s", rep.Total)
	}

	own, err := f.svc.Commissions(t.Context(), staff.Actor{UserID: f.caio.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}, f.from, f.to)
	if err != nil {
		t.Fatal(err)
	}
	if len(own.Barbers) != 1 || own.Barbers[0].BarberID != f.caio.ID {
		t.Fatalf("barber must only see own commissions, got %+v", own.Barbers)
	}
}

func TestSalesPerPaymentMethod(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Sales(t.Context(), f.admin(), f.from, f.to)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if rep.Count != 3 || !rep.Gross.Equal(dec("155")) || !rep.Discounts.Equal(dec("10")) || !rep.Net.Equal(dec("145")) {
		t.Fatalf("unexpected totals %+v", rep)
	}

	byMethod := map[string]MethodTotal{}
	for _, m := range rep.Methods {
		byMethod[m.Method] = m
	}
	if m := byMethod["pix"]; m.Count != 2 || !m.Total.Equal(dec("95")) {
		t.Fatalf("unexpected pix line %+v", m)
	}
	if m := byMethod["credit_card"]; m.Count != 0 || !m.Total.IsZero() {
		t.Fatalf("unused methods are listed with zero, got %+v", m)
	}

	_, err = f.svc.Sales(t.Context(), staff.Actor{UserID: f.bruno.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}, f.from, f.to)
	if !httperr.IsBusiness(err, "forbidden") {
		t.Fatalf("expected forbidden got %v", err)
	}

	_, err = f.svc.Sales(t.Context(), f.admin(), f.to, f.from)
	if !httperr.IsBusiness(err, "invalid_period") {
		t.Fatalf("expected invalid_period got %v", err)
	}
}

func TestWorkbook(t *testing.T) {
	f := newFixture(t)
	commissions, err := f.svc.Commissions(t.Context(), f.admin(), f.from, f.to)
	if err != nil {
		t.Fatal(err)
	}
	sales, err := f.svc.Sales(t.Context(), f.admin(), f.from, f.to)
	if err != nil {
		t.Fatal(err)
	}

	data, err := Workbook(commissions, sales)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(sheetCommissions)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][0] != "Barbeiro" || rows[1][0] != "Bruno" || rows[3][3] != "57" {
		t.Fatalf("unexpected commission sheet %v", rows)
	}

	salesRows, err := wb.GetRows(sheetSales)
	if err != nil {
		t.Fatal(err)
	}
	if salesRows[0][0] != "Forma de pagamento" || len(salesRows) != 8 {
		t.Fatalf("unexpected sales sheet %v", salesRows)
	}
}
