package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

const (
	SourceManual   = "manual"
	SourceWhatsApp = "whatsapp"
	SourcePublic   = "public"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	BarbershopID uint
	BarberID     uint

	// nil for bookings made by the assistant or the public page.
	Actor *staff.Actor

	ClientName  string
	ClientPhone string
	ClientEmail string

	ServiceID uint

	Date   string
	Time   string
	Notes  string
	Source string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo  domain.Repository
	audit audit.Recorder
	cache cache.Cache
}

func NewCreateAppointment(
	repo domain.Repository,
	audit audit.Recorder,
	cache cache.Cache,
) *CreateAppointment {
	return &CreateAppointment{
		repo:  repo,
		audit: audit,
		cache: cache,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	if in.Source == "" {
		in.Source = SourceManual
	}

	// barbeiro só agenda para si mesmo
	if in.Actor != nil && !in.Actor.CanActFor(in.BarberID) {
		return nil, httperr.ErrBusiness("forbidden")
	}

	phone := validators.NormalizePhone(in.ClientPhone)
	if strings.TrimSpace(in.ClientName) == "" || phone == "" {
		return nil, httperr.ErrBusiness("client_required")
	}

	// --------------------------------------------------
	// Barbearia
	// --------------------------------------------------
	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}
	loc := timezone.Location(shop.Timezone)

	// --------------------------------------------------
	// Data / hora no timezone da barbearia
	// --------------------------------------------------
	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		loc,
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	// --------------------------------------------------
	// Antecedência mínima (só para autoatendimento)
	// --------------------------------------------------
	now := timezone.NowIn(shop.Timezone)
	if in.Source != SourceManual {
		minAdvance := shop.MinAdvanceMinutes
		if minAdvance <= 0 {
			minAdvance = 120
		}
		if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
			return nil, httperr.ErrBusiness("too_soon")
		}
	}

	// --------------------------------------------------
	// Serviço e barbeiro
	// --------------------------------------------------
	service, err := uc.repo.GetService(ctx, in.BarbershopID, in.ServiceID)
	if err != nil {
		return nil, httperr.ErrBusiness("service_not_found")
	}

	if _, err := uc.repo.GetBarber(ctx, in.BarbershopID, in.BarberID); err != nil {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	duration := service.DurationMin
	if duration <= 0 {
		duration = shop.SlotMinutes
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	// --------------------------------------------------
	// Horário de funcionamento
	// --------------------------------------------------
	rows, err := uc.repo.ListBusinessHours(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}
	if !domain.WithinBusinessHours(domain.WeeklyHours(rows), start, end) {
		return nil, httperr.ErrBusiness("outside_business_hours")
	}

	// --------------------------------------------------
	// Cliente (get or create)
	// --------------------------------------------------
	client, err := uc.repo.GetOrCreateClient(
		ctx,
		in.BarbershopID,
		strings.TrimSpace(in.ClientName),
		phone,
		strings.TrimSpace(in.ClientEmail),
	)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Conflito de horário
	// --------------------------------------------------
	if err := uc.repo.AssertNoTimeConflict(
		ctx,
		in.BarberID,
		start,
		end,
	); err != nil {
		return nil, err
	}

	ap := &models.Appointment{
		BarbershopID: in.BarbershopID,
		BarberID:     in.BarberID,
		ClientID:     client.ID,
		ServiceID:    service.ID,
		StartTime:    start,
		EndTime:      end,
		Price:        service.Price,
		Status:       domain.InitialStatus().String(),
		Source:       in.Source,
		Notes:        in.Notes,
	}

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		// corrida entre duas reservas: a constraint de exclusão decide
		if httperr.IsExclusionConflict(err) {
			return nil, httperr.ErrBusiness("time_conflict")
		}
		return nil, err
	}

	ap.Client = *client
	ap.Service = *service

	invalidateDay(ctx, uc.cache, in.BarbershopID, start)

	var actorID *uint
	if in.Actor != nil {
		actorID = &in.Actor.UserID
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       actorID,
		Action:       "appointment_created",
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata:     map[string]any{"source": in.Source},
	})

	return ap, nil
}
