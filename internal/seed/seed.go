// Package seed fills a barbershop with plausible past activity: clients,
// appointments and the sales of the ones that were completed. It backs the
// historical-data-generator function used for demos and for testing reports.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	apdomain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

const (
	PhaseClients      = "clients"
	PhaseAppointments = "appointments"
	PhaseSales        = "sales"
)

type Config struct {
	Days               int `json:"days"`
	Clients            int `json:"clients"`
	AppointmentsPerDay int `json:"appointments_per_day"`
	// CancelRate is the share of generated bookings left cancelled.
	CancelRate float64 `json:"cancel_rate"`
	// Seed makes a run reproducible. Zero picks one from the clock.
	Seed int64 `json:"seed"`
}

func (c *Config) normalize() error {
	if c.Days == 0 {
		c.Days = 30
	}
	if c.Clients == 0 {
		c.Clients = 40
	}
	if c.AppointmentsPerDay == 0 {
		c.AppointmentsPerDay = 8
	}
	if c.Days < 1 || c.Days > 365 ||
		c.Clients < 1 || c.Clients > 500 ||
		c.AppointmentsPerDay < 1 || c.AppointmentsPerDay > 60 ||
		c.CancelRate < 0 || c.CancelRate > 1 {
		return httperr.ErrBusiness("invalid_seed_config")
	}
	return nil
}

type Phase struct {
	Name    string `json:"name"`
	Created int    `json:"created"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type Report struct {
	BarbershopID uint            `json:"barbershop_id"`
	Config       Config          `json:"config"`
	Phases       []Phase         `json:"phases"`
	Completed    int             `json:"completed"`
	Cancelled    int             `json:"cancelled"`
	Revenue      decimal.Decimal `json:"revenue"`
	Commissions  decimal.Decimal `json:"commissions"`
}

type Generator struct {
	db    *gorm.DB
	audit audit.Recorder
	now   func() time.Time
}

func NewGenerator(db *gorm.DB, a audit.Recorder) *Generator {
	return &Generator{db: db, audit: a, now: time.Now}
}

// catalog is what the generator books against.
type catalog struct {
	shop     models.Barbershop
	barbers  []models.User
	services []models.Service
	hours    schedule.WeeklyHours
}

// ======================================================
// RUN
// ======================================================

// Run executes the phases in order. A failed phase is reported and stops the
// ones after it; what earlier phases wrote stays.
func (g *Generator) Run(ctx context.Context, actor staff.Actor, cfg Config) (*Report, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = g.now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	cat, err := g.loadCatalog(ctx, actor.BarbershopID)
	if err != nil {
		return nil, err
	}

	r := &Report{
		BarbershopID: actor.BarbershopID,
		Config:       cfg,
		Revenue:      decimal.Zero,
		Commissions:  decimal.Zero,
	}

	clients, err := g.clients(ctx, cat, cfg, rng)
	if !r.phase(PhaseClients, len(clients), err) {
		return r, nil
	}

	completed, err := g.appointments(ctx, cat, clients, cfg, rng, r)
	if !r.phase(PhaseAppointments, r.Completed+r.Cancelled, err) {
		return r, nil
	}

	sales, err := g.sales(ctx, cat, completed, rng, r)
	r.phase(PhaseSales, sales, err)

	log.Printf("[seed] shop %d: %d clients, %d completed, %d cancelled, revenue %s",
		actor.BarbershopID, len(clients), r.Completed, r.Cancelled, r.Revenue.StringFixed(2))

	g.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "historical_data_generated",
		Entity:       "barbershop",
		EntityID:     &actor.BarbershopID,
		Metadata:     r.Phases,
	})
	return r, nil
}

func (r *Report) phase(name string, created int, err error) bool {
	p := Phase{Name: name, Created: created, OK: err == nil}
	if err != nil {
		p.Error = err.Error()
	}
	r.Phases = append(r.Phases, p)
	return err == nil
}

func (g *Generator) loadCatalog(ctx context.Context, barbershopID uint) (*catalog, error) {
	db := g.db.WithContext(ctx)
	cat := &catalog{}

	if err := db.First(&cat.shop, barbershopID).Error; err != nil {
		return nil, err
	}
	if err := db.Where("barbershop_id = ? AND active = ? AND role IN ?", barbershopID, true, []string{"admin", "barber"}).
		Order("id").Find(&cat.barbers).Error; err != nil {
		return nil, err
	}
	if err := db.Where("barbershop_id = ? AND active = ?", barbershopID, true).
		Order("id").Find(&cat.services).Error; err != nil {
		return nil, err
	}
	if len(cat.barbers) == 0 || len(cat.services) == 0 {
		return nil, httperr.ErrBusiness("catalog_empty")
	}

	var rows []models.BusinessHours
	if err := db.Where("barbershop_id = ?", barbershopID).Find(&rows).Error; err != nil {
		return nil, err
	}
	cat.hours = apdomain.WeeklyHours(rows)
	return cat, nil
}

// ======================================================
// CLIENTS
// ======================================================

var (
	firstNames = []string{"João", "Pedro", "Lucas", "Mateus", "Gabriel", "Rafael", "Felipe", "Bruno", "Thiago", "Diego", "André", "Marcos", "Vinícius", "Gustavo", "Leonardo"}
	lastNames  = []string{"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Ferreira", "Almeida", "Ribeiro", "Carvalho", "Gomes"}
)

func (g *Generator) clients(ctx context.Context, cat *catalog, cfg Config, rng *rand.Rand) ([]models.Client, error) {
	out := make([]models.Client, 0, cfg.Clients)
	created := g.now().AddDate(0, 0, -cfg.Days)

	for i := 0; i < cfg.Clients; i++ {
		out = append(out, models.Client{
			BarbershopID: cat.shop.ID,
			Name:         firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			// 5511 9 + oito dígitos, faixa reservada para dados gerados
			Phone:     fmt.Sprintf("55119%08d", rng.Intn(100000000)),
			Notes:     "gerado automaticamente",
			CreatedAt: created,
		})
	}

	if err := g.db.WithContext(ctx).CreateInBatches(&out, 100).Error; err != nil {
		return nil, fmt.Errorf("create clients: %w", err)
	}
	return out, nil
}

// ======================================================
// APPOINTMENTS
// ======================================================

// appointments books each past day from opening time, one barber after the
// other, skipping slots that already hold a real booking.
func (g *Generator) appointments(
	ctx context.Context,
	cat *catalog,
	clients []models.Client,
	cfg Config,
	rng *rand.Rand,
	r *Report,
) ([]models.Appointment, error) {

	loc := timezone.Location(cat.shop.Timezone)
	today := g.now().In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	var completed []models.Appointment

	for d := cfg.Days; d >= 1; d-- {
		day := today.AddDate(0, 0, -d)
		openMin, closeMin, ok := cat.hours.Window(day)
		if !ok {
			continue
		}

		// só entra no relatório depois do commit do dia
		var dayDone []models.Appointment
		dayCancelled := 0

		err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dayDone, dayCancelled = nil, 0
			cursor := make([]int, len(cat.barbers))
			for i := range cursor {
				cursor[i] = openMin
			}

			for k := 0; k < cfg.AppointmentsPerDay; k++ {
				bi := k % len(cat.barbers)
				barber := cat.barbers[bi]
				svc := cat.services[rng.Intn(len(cat.services))]
				client := clients[rng.Intn(len(clients))]

				duration := svc.DurationMin
				if duration <= 0 {
					duration = 30
				}
				if cursor[bi]+duration > closeMin {
					continue
				}

				start := day.Add(time.Duration(cursor[bi]) * time.Minute)
				end := start.Add(time.Duration(duration) * time.Minute)
				cursor[bi] += duration

				var busy int64
				if err := tx.Model(&models.Appointment{}).
					Where("barber_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
						barber.ID, apdomain.OccupyingStatuses(), end, start).
					Count(&busy).Error; err != nil {
					return err
				}
				if busy > 0 {
					continue
				}

				status := apdomain.StatusCompleted
				if rng.Float64() < cfg.CancelRate {
					status = apdomain.StatusCancelled
				}

				ap := models.Appointment{
					BarbershopID: cat.shop.ID,
					BarberID:     barber.ID,
					ClientID:     client.ID,
					ServiceID:    svc.ID,
					StartTime:    start,
					EndTime:      end,
					Price:        ledger.Cents(svc.Price),
					Status:       status.String(),
					Source:       "seed",
					CreatedAt:    start.AddDate(0, 0, -rng.Intn(7)-1),
				}
				if status == apdomain.StatusCompleted {
					ap.CompletedAt = &end
				} else {
					ap.CancelledAt = &start
				}

				if err := tx.Omit("Barbershop", "Barber", "Client", "Service").Create(&ap).Error; err != nil {
					return err
				}

				if status == apdomain.StatusCompleted {
					ap.Barber = barber
					ap.Service = svc
					dayDone = append(dayDone, ap)
				} else {
					dayCancelled++
				}
			}
			return nil
		})
		if err != nil {
			return completed, fmt.Errorf("day %s: %w", day.Format("2006-01-02"), err)
		}

		r.Completed += len(dayDone)
		r.Cancelled += dayCancelled
		completed = append(completed, dayDone...)
	}

	return completed, nil
}

// ======================================================
// SALES
// ======================================================

var methods = []ledger.PaymentMethod{ledger.PaymentCash, ledger.PaymentCreditCard, ledger.PaymentDebitCard, ledger.PaymentPix}

// sales writes the closed command, sale and commission of every completed
// appointment, dated at the end of the visit.
func (g *Generator) sales(ctx context.Context, cat *catalog, completed []models.Appointment, rng *rand.Rand, r *Report) (int, error) {
	count := 0
	for _, ap := range completed {
		err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			at := ap.EndTime
			apID := ap.ID
			svcID := ap.ServiceID

			item := models.CommandItem{
				ItemType:       ledger.ItemService,
				ServiceID:      &svcID,
				BarberID:       ap.BarberID,
				Name:           ap.Service.Name,
				Quantity:       1,
				UnitPrice:      ap.Price,
				CommissionRate: ap.Barber.CommissionRate,
				CreatedAt:      at,
			}
			if err := ledger.PriceLine(&item); err != nil {
				return err
			}

			cmd := models.Command{
				BarbershopID:  cat.shop.ID,
				AppointmentID: &apID,
				ClientID:      ap.ClientID,
				BarberID:      ap.BarberID,
				Status:        ledger.CommandClosed,
				TotalAmount:   item.TotalPrice,
				ClosedAt:      &at,
				CreatedAt:     ap.StartTime,
			}
			if err := tx.Omit("Client", "Items").Create(&cmd).Error; err != nil {
				return err
			}
			item.CommandID = cmd.ID
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			method := methods[rng.Intn(len(methods))]
			sale := models.Sale{
				BarbershopID:   cat.shop.ID,
				CommandID:      cmd.ID,
				ClientID:       ap.ClientID,
				BarberID:       ap.BarberID,
				TotalAmount:    item.TotalPrice,
				DiscountAmount: decimal.Zero,
				FinalAmount:    item.TotalPrice,
				PaymentMethod:  string(method),
				IdempotencyKey: uuid.NewString(),
				CreatedAt:      at,
			}
			if err := tx.Omit("Items").Create(&sale).Error; err != nil {
				return err
			}

			saleItem := models.SaleItem{
				SaleID:        sale.ID,
				CommandItemID: item.ID,
				ItemType:      item.ItemType,
				ServiceID:     item.ServiceID,
				Name:          item.Name,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				TotalPrice:    item.TotalPrice,
			}
			if err := tx.Create(&saleItem).Error; err != nil {
				return err
			}

			commission := models.Commission{
				BarbershopID:     cat.shop.ID,
				SaleID:           sale.ID,
				SaleItemID:       saleItem.ID,
				CommandItemID:    item.ID,
				BarberID:         item.BarberID,
				BaseAmount:       item.TotalPrice,
				CommissionRate:   item.CommissionRate,
				CommissionAmount: item.CommissionAmount,
				Status:           "pending",
				CreatedAt:        at,
			}
			if err := tx.Create(&commission).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Command{}).Where("id = ?", cmd.ID).Update("sale_id", sale.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Client{}).
				Where("id = ? AND (last_visit_at IS NULL OR last_visit_at < ?)", ap.ClientID, at).
				Update("last_visit_at", at).Error; err != nil {
				return err
			}

			r.Revenue = r.Revenue.Add(sale.FinalAmount)
			r.Commissions = r.Commissions.Add(commission.CommissionAmount)
			return nil
		})
		if err != nil {
			return count, fmt.Errorf("appointment %d: %w", ap.ID, err)
		}
		count++
	}
	return count, nil
}
