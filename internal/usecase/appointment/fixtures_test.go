package appointment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type fixture struct {
	db      *gorm.DB
	repo    *repository.AppointmentGormRepository
	cache   *cache.Memory
	shop    models.Barbershop
	ana     models.User
	bruno   models.User
	service models.Service
	day     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)

	f := &fixture{
		db:    db,
		repo:  repository.NewAppointmentGormRepository(db),
		cache: cache.NewMemory(),
	}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC", SlotMinutes: 15, MinAdvanceMinutes: 60}
	mustCreate(t, db, &f.shop)

	f.ana = models.User{BarbershopID: f.shop.ID, Name: "Ana", Email: "ana@navalha.test", PasswordHash: "x", Role: "admin", Active: true}
	f.bruno = models.User{BarbershopID: f.shop.ID, Name: "Bruno", Email: "bruno@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	mustCreate(t, db, &f.ana)
	mustCreate(t, db, &f.bruno)

	f.service = models.Service{BarbershopID: f.shop.ID, Name: "Corte", DurationMin: 30, Price: decimal.NewFromInt(45), Active: true}
	mustCreate(t, db, &f.service)

	for wd := 0; wd < 7; wd++ {
		mustCreate(t, db, &models.BusinessHours{BarbershopID: f.shop.ID, Weekday: wd, OpenTime: "09:00", CloseTime: "18:00"})
	}

	d := time.Now().UTC().AddDate(0, 0, 30)
	f.day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) admin() staff.Actor {
	return staff.Actor{UserID: f.ana.ID, BarbershopID: f.shop.ID, Role: staff.RoleAdmin}
}

func (f *fixture) barber() staff.Actor {
	return staff.Actor{UserID: f.bruno.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}
}

func (f *fixture) create() *CreateAppointment {
	return NewCreateAppointment(f.repo, audit.Discard{}, f.cache)
}

func (f *fixture) book(t *testing.T, barberID uint, at string) *models.Appointment {
	t.Helper()
	ap, err := f.create().Execute(t.Context(), CreateAppointmentInput{
		BarbershopID: f.shop.ID,
		BarberID:     barberID,
		ClientName:   "Carlos",
		ClientPhone:  "(11) 98888-7777",
		ServiceID:    f.service.ID,
		Date:         f.day.Format("2006-01-02"),
		Time:         at,
	})
	if err != nil {
		t.Fatalf("book %s: %v", at, err)
	}
	return ap
}
