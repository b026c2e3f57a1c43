package subscription

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeGateway records checkouts and answers payments from a map.
type fakeGateway struct {
	checkouts []payments.CheckoutRequest
	payments  map[string]*payments.PaymentInfo
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	g.checkouts = append(g.checkouts, req)
	id := fmt.Sprintf("pref-%d", len(g.checkouts))
	return &payments.Checkout{PreferenceID: id, InitPoint: "https://pay.test/" + id}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*payments.PaymentInfo, error) {
	p, ok := g.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	return p, nil
}

type fixture struct {
	db      *gorm.DB
	repo    *repository.SubscriptionGormRepository
	gateway *fakeGateway
	shop    models.Barbershop
	admin   models.User
	barberA models.User
	barberB models.User
	client  models.Client
	haircut models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:      db,
		repo:    repository.NewSubscriptionGormRepository(db),
		gateway: &fakeGateway{payments: map[string]*payments.PaymentInfo{}},
	}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	mustCreate(t, db, &f.shop)

	f.admin = models.User{BarbershopID: f.shop.ID, Name: "Ana", Email: "ana@navalha.test", PasswordHash: "x", Role: "admin", Active: true}
	f.barberA = models.User{BarbershopID: f.shop.ID, Name: "Bruno", Email: "bruno@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	f.barberB = models.User{BarbershopID: f.shop.ID, Name: "Caio", Email: "caio@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	mustCreate(t, db, &f.admin)
	mustCreate(t, db, &f.barberA)
	mustCreate(t, db, &f.barberB)

	f.client = models.Client{BarbershopID: f.shop.ID, Name: "Davi", Phone: "5511977776666"}
	mustCreate(t, db, &f.client)

	f.haircut = models.Service{BarbershopID: f.shop.ID, Name: "Corte", DurationMin: 30, Price: dec("50"), Active: true}
	mustCreate(t, db, &f.haircut)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) actor() staff.Actor {
	return staff.Actor{UserID: f.admin.ID, BarbershopID: f.shop.ID, Role: staff.RoleAdmin}
}

func (f *fixture) plan(t *testing.T) *models.SubscriptionPlan {
	t.Helper()
	plan, err := NewCreatePlan(f.repo, audit.Discard{}).Execute(t.Context(), PlanInput{
		Actor:                f.actor(),
		Name:                 "Clube do Corte",
		MonthlyPrice:         dec("100"),
		IncludedServices:     4,
		CommissionPercentage: dec("50"),
		ServiceIDs:           []uint{f.haircut.ID},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}
