package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// ChangeStatus applies one status transition to an appointment.
type ChangeStatus struct {
	repo   domain.Repository
	audit  audit.Recorder
	cache  cache.Cache
	apply  func(*models.Appointment, time.Time) error
	action string
}

func NewConfirmAppointment(repo domain.Repository, a audit.Recorder, c cache.Cache) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: a, cache: c, apply: domain.Confirm, action: "appointment_confirmed"}
}

func NewCompleteAppointment(repo domain.Repository, a audit.Recorder, c cache.Cache) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: a, cache: c, apply: domain.Complete, action: "appointment_completed"}
}

func NewCancelAppointment(repo domain.Repository, a audit.Recorder, c cache.Cache) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: a, cache: c, apply: domain.Cancel, action: "appointment_cancelled"}
}

func NewMarkNoShow(repo domain.Repository, a audit.Recorder, c cache.Cache) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: a, cache: c, apply: domain.MarkNoShow, action: "appointment_no_show"}
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	actor staff.Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, actor.BarbershopID)
	if err != nil {
		return nil, err
	}

	ap, err := loadForActor(ctx, uc.repo, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(shop.Timezone)
	if err := uc.apply(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	invalidateDay(ctx, uc.cache, actor.BarbershopID, ap.StartTime.In(timezone.Location(shop.Timezone)))

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       uc.action,
		Entity:       "appointment",
		EntityID:     &ap.ID,
	})

	return ap, nil
}

func loadForActor(
	ctx context.Context,
	repo domain.Repository,
	actor staff.Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := repo.GetAppointment(ctx, actor.BarbershopID, appointmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	if err != nil {
		return nil, err
	}

	// barbeiro não enxerga agenda de outro barbeiro
	if !actor.CanActFor(ap.BarberID) {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return ap, nil
}
