package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

type GetAvailability struct {
	repo domain.Repository
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo}
}

// Execute lists the start times where the service fits for the barber.
// in.Date only contributes its calendar day.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}
	loc := timezone.Location(shop.Timezone)

	service, err := uc.repo.GetService(ctx, in.BarbershopID, in.ServiceID)
	if err != nil {
		return nil, httperr.ErrBusiness("service_not_found")
	}

	if _, err := uc.repo.GetBarber(ctx, in.BarbershopID, in.BarberID); err != nil {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	rows, err := uc.repo.ListBusinessHours(ctx, in.BarbershopID)
	if err != nil {
		return nil, err
	}
	hours := domain.WeeklyHours(rows)

	day := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, loc)

	_, closeMin, open := hours.Window(day)
	if !open {
		return []domain.TimeSlot{}, nil
	}

	apps, err := uc.repo.ListAppointmentsForDay(ctx, in.BarberID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	occupants := make([]schedule.Occupant, 0, len(apps))
	for _, ap := range apps {
		occupants = append(occupants, domain.Occupant(ap, loc))
	}

	duration := service.DurationMin
	if duration <= 0 {
		duration = shop.SlotMinutes
	}

	slots := schedule.GenerateTimeSlots(day, hours, shop.SlotMinutes)
	starts := schedule.FreeStarts(slots, schedule.FormatClock(closeMin), duration, occupants)

	// horários que já passaram hoje
	now := timezone.NowIn(shop.Timezone)
	out := make([]domain.TimeSlot, 0, len(starts))
	for _, s := range starts {
		startMin, _ := schedule.ParseClock(s)
		at := day.Add(time.Duration(startMin) * time.Minute)
		if at.Before(now) {
			continue
		}
		out = append(out, domain.TimeSlot{
			Start: s,
			End:   schedule.FormatClock(startMin + duration),
		})
	}

	return out, nil
}
