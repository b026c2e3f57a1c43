package cashregister

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRegisterLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewLedgerGormRepository(db)

	shop := models.Barbershop{Name: "Navalha", Slug: "navalha"}
	db.Create(&shop)
	actor := staff.Actor{UserID: 1, BarbershopID: shop.ID, Role: staff.RoleReceptionist}

	open := NewOpenRegister(repo, audit.Discard{})
	reg, err := open.Execute(t.Context(), actor, dec("100"), "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := open.Execute(t.Context(), actor, dec("0"), ""); !httperr.IsBusiness(err, "register_already_open") {
		t.Fatalf("expected register_already_open, got %v", err)
	}

	// a cash sale and a pix sale recorded by the ledger
	reg.SalesCount = 2
	reg.TotalSales = dec("150")
	reg.TotalCash = dec("90")
	reg.TotalPix = dec("60")
	db.Save(reg)

	sum, err := NewQueries(repo).Current(t.Context(), actor)
	if err != nil || sum == nil {
		t.Fatalf("current: %v", err)
	}
	if !sum.ExpectedCash.Equal(dec("190")) {
		t.Fatalf("expected cash = %s", sum.ExpectedCash)
	}

	closed, err := NewCloseRegister(repo, audit.Discard{}).Execute(t.Context(), actor, reg.ID, dec("185"), "faltou troco")
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != ledger.RegisterClosed || !closed.Difference.Equal(dec("-5")) {
		t.Fatalf("unexpected close %+v", closed)
	}

	if _, err := NewCloseRegister(repo, audit.Discard{}).Execute(t.Context(), actor, reg.ID, dec("185"), ""); !httperr.IsBusiness(err, "register_closed") {
		t.Fatalf("expected register_closed, got %v", err)
	}

	sum, err = NewQueries(repo).Current(t.Context(), actor)
	if err != nil || sum != nil {
		t.Fatalf("no register should be open: %+v %v", sum, err)
	}
}

func TestBarberCannotOpenRegister(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewLedgerGormRepository(db)

	_, err := NewOpenRegister(repo, audit.Discard{}).Execute(t.Context(), staff.Actor{UserID: 2, BarbershopID: 1, Role: staff.RoleBarber}, dec("0"), "")
	if !httperr.IsBusiness(err, "forbidden") {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
