package appointment

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// NoShowTag is appended to the notes of an appointment the client missed.
const NoShowTag = "[no_show]"

func current(ap *models.Appointment) (Status, error) {
	return ParseStatus(ap.Status)
}

// ===============================
// Domain Actions
// ===============================

func Confirm(ap *models.Appointment, now time.Time) error {
	st, err := current(ap)
	if err != nil {
		return err
	}
	if err := CanConfirm(st); err != nil {
		return err
	}

	ap.Status = StatusConfirmed.String()
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	st, err := current(ap)
	if err != nil {
		return err
	}
	if err := CanCancel(st); err != nil {
		return err
	}

	ap.Status = StatusCancelled.String()
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	st, err := current(ap)
	if err != nil {
		return err
	}
	if err := CanComplete(st); err != nil {
		return err
	}

	ap.Status = StatusCompleted.String()
	ap.CompletedAt = &now
	return nil
}

// MarkNoShow cancels an appointment whose start already passed and tags its
// notes. no_show is never stored as a status.
func MarkNoShow(ap *models.Appointment, now time.Time) error {
	if now.Before(ap.StartTime) {
		return httperr.ErrBusiness("appointment_not_started")
	}
	if err := Cancel(ap, now); err != nil {
		return err
	}
	if !IsNoShow(ap) {
		ap.Notes = strings.TrimSpace(ap.Notes + " " + NoShowTag)
	}
	return nil
}

func IsNoShow(ap *models.Appointment) bool {
	return strings.Contains(ap.Notes, NoShowTag)
}

// Occupant reduces an appointment to its grid footprint in loc.
func Occupant(ap models.Appointment, loc *time.Location) schedule.Occupant {
	return schedule.Occupant{
		ID:       ap.ID,
		BarberID: ap.BarberID,
		Start:    ap.StartTime.In(loc).Format("15:04"),
		End:      ap.EndTime.In(loc).Format("15:04"),
	}
}
