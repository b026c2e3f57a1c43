package assistant

import (
	"context"
	"log"
	"time"

	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
	ucappointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
)

// HandoffFunc moves the conversation to a human attendant.
type HandoffFunc func(ctx context.Context, reason string) error

// BookingTools executes the model's tool calls for one conversation.
type BookingTools struct {
	repo         domain.Repository
	availability *ucappointment.GetAvailability
	create       *ucappointment.CreateAppointment
	notifier     notify.Notifier
	handoff      HandoffFunc

	barbershopID uint
	phone        string

	// Booked is the last appointment created during the exchange.
	Booked *models.Appointment
	// HandedOff is set once transfer_to_human ran.
	HandedOff bool
}

type BookingDeps struct {
	Repo         domain.Repository
	Availability *ucappointment.GetAvailability
	Create       *ucappointment.CreateAppointment
	Notifier     notify.Notifier
}

func NewBookingTools(deps BookingDeps, barbershopID uint, phone string, handoff HandoffFunc) *BookingTools {
	n := deps.Notifier
	if n == nil {
		n = notify.Noop{}
	}
	return &BookingTools{
		repo:         deps.Repo,
		availability: deps.Availability,
		create:       deps.Create,
		notifier:     n,
		handoff:      handoff,
		barbershopID: barbershopID,
		phone:        phone,
	}
}

var _ Executor = (*BookingTools)(nil)

func (b *BookingTools) Execute(ctx context.Context, call ToolCall) map[string]any {
	switch call.Name {
	case ToolCheckAvailability:
		return b.checkAvailability(ctx, call.Args)
	case ToolCreateBooking:
		return b.createBooking(ctx, call.Args)
	case ToolTransferToHuman:
		return b.transfer(ctx, call.Args)
	}
	return toolError("unknown_tool")
}

// ======================================================
// CHECK AVAILABILITY
// ======================================================

func (b *BookingTools) checkAvailability(ctx context.Context, args map[string]any) map[string]any {
	date, err := time.Parse("2006-01-02", argString(args, "date"))
	if err != nil {
		return toolError("invalid_date")
	}
	serviceID := argUint(args, "service_id")
	if serviceID == 0 {
		return toolError("service_required")
	}

	var barbers []models.User
	if id := argUint(args, "barber_id"); id != 0 {
		barber, err := b.repo.GetBarber(ctx, b.barbershopID, id)
		if err != nil {
			return toolError("barber_not_found")
		}
		barbers = []models.User{*barber}
	} else {
		barbers, err = b.repo.ListBarbers(ctx, b.barbershopID)
		if err != nil {
			return toolError("internal_error")
		}
	}

	result := make([]map[string]any, 0, len(barbers))
	for _, barber := range barbers {
		slots, err := b.availability.Execute(ctx, domain.AvailabilityInput{
			BarbershopID: b.barbershopID,
			BarberID:     barber.ID,
			ServiceID:    serviceID,
			Date:         date,
		})
		if err != nil {
			if code := httperr.BusinessCode(err); code != "" {
				return toolError(code)
			}
			return toolError("internal_error")
		}

		starts := make([]string, 0, len(slots))
		for _, s := range slots {
			starts = append(starts, s.Start)
		}
		result = append(result, map[string]any{
			"barber_id":   barber.ID,
			"barber_name": barber.Name,
			"times":       starts,
		})
	}

	return map[string]any{
		"date":    date.Format("2006-01-02"),
		"barbers": result,
	}
}

// ======================================================
// CREATE BOOKING
// ======================================================

func (b *BookingTools) createBooking(ctx context.Context, args map[string]any) map[string]any {
	ap, err := b.create.Execute(ctx, ucappointment.CreateAppointmentInput{
		BarbershopID: b.barbershopID,
		BarberID:     argUint(args, "barber_id"),
		ClientName:   argString(args, "client_name"),
		ClientPhone:  b.phone,
		ServiceID:    argUint(args, "service_id"),
		Date:         argString(args, "date"),
		Time:         argString(args, "time"),
		Source:       ucappointment.SourceWhatsApp,
	})
	if err != nil {
		if code := httperr.BusinessCode(err); code != "" {
			return toolError(code)
		}
		log.Printf("[assistant] create booking failed: %v", err)
		return toolError("internal_error")
	}
	b.Booked = ap

	shop, err := b.repo.GetBarbershopByID(ctx, b.barbershopID)
	loc := time.UTC
	if err == nil {
		loc = timezone.Location(shop.Timezone)
	}
	if barber, err := b.repo.GetBarber(ctx, b.barbershopID, ap.BarberID); err == nil {
		notify.NotifyBarber(ctx, b.notifier, barber,
			notify.NewBookingMessage(ap, ap.Client.Name, ap.Service.Name, loc))
	}

	start := ap.StartTime.In(loc)
	return map[string]any{
		"appointment_id": ap.ID,
		"date":           start.Format("2006-01-02"),
		"time":           start.Format("15:04"),
		"service":        ap.Service.Name,
		"price":          ap.Price.StringFixed(2),
	}
}

// ======================================================
// HANDOFF
// ======================================================

func (b *BookingTools) transfer(ctx context.Context, args map[string]any) map[string]any {
	reason := argString(args, "reason")
	if b.handoff != nil {
		if err := b.handoff(ctx, reason); err != nil {
			log.Printf("[assistant] handoff failed: %v", err)
			return toolError("internal_error")
		}
	}
	b.HandedOff = true
	return map[string]any{"transferred": true}
}

func toolError(code string) map[string]any {
	return map[string]any{"error": code}
}
