package command

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	db      *gorm.DB
	repo    *repository.LedgerGormRepository
	shop    models.Barbershop
	barber  models.User
	client  models.Client
	haircut models.Service
	beard   models.Service
	pomade  models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, repo: repository.NewLedgerGormRepository(db)}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	mustCreate(t, db, &f.shop)

	f.barber = models.User{
		BarbershopID:   f.shop.ID,
		Name:           "Bruno",
		Email:          "bruno@navalha.test",
		PasswordHash:   "x",
		Role:           "barber",
		Active:         true,
		CommissionRate: dec("40"),
	}
	mustCreate(t, db, &f.barber)

	f.client = models.Client{BarbershopID: f.shop.ID, Name: "Carlos", Phone: "5511988887777"}
	mustCreate(t, db, &f.client)

	f.haircut = models.Service{BarbershopID: f.shop.ID, Name: "Corte", DurationMin: 30, Price: dec("50"), Active: true}
	f.beard = models.Service{BarbershopID: f.shop.ID, Name: "Barba", DurationMin: 20, Price: dec("30"), Active: true}
	mustCreate(t, db, &f.haircut)
	mustCreate(t, db, &f.beard)

	f.pomade = models.Product{BarbershopID: f.shop.ID, Name: "Pomada", Price: dec("25"), Stock: 3, CommissionRate: dec("10"), Active: true}
	mustCreate(t, db, &f.pomade)

	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) actor() staff.Actor {
	return staff.Actor{UserID: f.barber.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}
}

func (f *fixture) open(t *testing.T) *models.Command {
	t.Helper()
	cmd, err := NewOpenCommand(f.repo, audit.Discard{}).Execute(t.Context(), OpenCommandInput{
		Actor:    f.actor(),
		ClientID: f.client.ID,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return cmd
}

func (f *fixture) add(t *testing.T, cmdID uint, itemType string, id uint, qty int) *models.Command {
	t.Helper()
	in := AddItemInput{Actor: f.actor(), CommandID: cmdID, ItemType: itemType, Quantity: qty}
	if itemType == ledger.ItemService {
		in.ServiceID = id
	} else {
		in.ProductID = id
	}
	cmd, err := NewAddItem(f.repo, audit.Discard{}).Execute(t.Context(), in)
	if err != nil {
		t.Fatalf("add %s %d: %v", itemType, id, err)
	}
	return cmd
}

// subscribe gives the client an active plan covering haircut with quota n.
func (f *fixture) subscribe(t *testing.T, n int) models.ClientSubscription {
	t.Helper()
	plan := models.SubscriptionPlan{
		BarbershopID:         f.shop.ID,
		Name:                 "Clube",
		MonthlyPrice:         dec("120"),
		IncludedServices:     4,
		CommissionPercentage: dec("50"),
		Active:               true,
		Services:             []models.Service{f.haircut},
	}
	mustCreate(t, f.db, &plan)

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(29 * 24 * time.Hour)
	sub := models.ClientSubscription{
		BarbershopID:       f.shop.ID,
		ClientID:           f.client.ID,
		PlanID:             plan.ID,
		Status:             ledger.SubscriptionActive,
		RemainingServices:  n,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
	}
	mustCreate(t, f.db, &sub)
	return sub
}

func (f *fixture) storedTotal(t *testing.T, cmdID uint) decimal.Decimal {
	t.Helper()
	var cmd models.Command
	if err := f.db.First(&cmd, cmdID).Error; err != nil {
		t.Fatal(err)
	}
	return cmd.TotalAmount
}

func (f *fixture) itemSum(t *testing.T, cmdID uint) decimal.Decimal {
	t.Helper()
	var items []models.CommandItem
	f.db.Where("command_id = ?", cmdID).Find(&items)
	return ledger.CommandTotal(items)
}
