package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// DeleteAppointment removes the row for good. Admin only.
type DeleteAppointment struct {
	repo  domain.Repository
	audit audit.Recorder
	cache cache.Cache
}

func NewDeleteAppointment(repo domain.Repository, a audit.Recorder, c cache.Cache) *DeleteAppointment {
	return &DeleteAppointment{repo: repo, audit: a, cache: c}
}

func (uc *DeleteAppointment) Execute(ctx context.Context, actor staff.Actor, appointmentID uint) error {
	if actor.Role != staff.RoleAdmin {
		return httperr.ErrBusiness("forbidden")
	}

	shop, err := uc.repo.GetBarbershopByID(ctx, actor.BarbershopID)
	if err != nil {
		return err
	}

	ap, err := loadForActor(ctx, uc.repo, actor, appointmentID)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteAppointment(ctx, ap); err != nil {
		return err
	}

	invalidateDay(ctx, uc.cache, actor.BarbershopID, ap.StartTime.In(timezone.Location(shop.Timezone)))

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "appointment_deleted",
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata: map[string]any{
			"status":     ap.Status,
			"start_time": ap.StartTime,
			"client_id":  ap.ClientID,
		},
	})
	return nil
}
