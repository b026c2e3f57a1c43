package command

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type OpenCommandInput struct {
	Actor    staff.Actor
	ClientID uint
	BarberID uint
	Notes    string
}

type OpenCommand struct {
	repo  ledger.Repository
	audit audit.Recorder
}

func NewOpenCommand(repo ledger.Repository, a audit.Recorder) *OpenCommand {
	return &OpenCommand{repo: repo, audit: a}
}

// Execute opens a walk-in command not tied to an appointment.
func (uc *OpenCommand) Execute(ctx context.Context, in OpenCommandInput) (*models.Command, error) {
	if in.BarberID == 0 {
		in.BarberID = in.Actor.UserID
	}
	if !in.Actor.CanActFor(in.BarberID) {
		return nil, httperr.ErrBusiness("forbidden")
	}

	if _, err := uc.repo.GetClient(ctx, in.Actor.BarbershopID, in.ClientID); err != nil {
		return nil, httperr.ErrBusiness("client_not_found")
	}
	if _, err := uc.repo.GetBarber(ctx, in.Actor.BarbershopID, in.BarberID); err != nil {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	cmd := &models.Command{
		BarbershopID: in.Actor.BarbershopID,
		ClientID:     in.ClientID,
		BarberID:     in.BarberID,
		Status:       ledger.CommandOpen,
		Notes:        in.Notes,
	}
	if err := uc.repo.CreateCommand(ctx, cmd); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: cmd.BarbershopID,
		UserID:       &in.Actor.UserID,
		Action:       "command_opened",
		Entity:       "command",
		EntityID:     &cmd.ID,
	})
	return cmd, nil
}

// OpenForAppointment returns the command of an appointment, creating it on
// first use with the booked service as its first line. An appointment has one
// command for good: once closed it is returned as is, never reopened.
type OpenForAppointment struct {
	repo  ledger.Repository
	audit audit.Recorder
}

func NewOpenForAppointment(repo ledger.Repository, a audit.Recorder) *OpenForAppointment {
	return &OpenForAppointment{repo: repo, audit: a}
}

func (uc *OpenForAppointment) Execute(ctx context.Context, actor staff.Actor, appointmentID uint) (*models.Command, error) {
	var (
		out     *models.Command
		created bool
	)

	err := uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		ap, err := tx.GetAppointment(ctx, actor.BarbershopID, appointmentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness("appointment_not_found")
		}
		if err != nil {
			return err
		}
		if !actor.CanActFor(ap.BarberID) {
			return httperr.ErrBusiness("appointment_not_found")
		}

		existing, err := tx.FindCommandForAppointment(ctx, actor.BarbershopID, ap.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			out, err = tx.GetCommand(ctx, actor.BarbershopID, existing.ID)
			return err
		}

		st, err := appointment.ParseStatus(ap.Status)
		if err != nil {
			return err
		}
		if !st.Occupies() {
			return httperr.ErrBusiness("appointment_cancelled")
		}

		cmd := &models.Command{
			BarbershopID:  ap.BarbershopID,
			AppointmentID: &ap.ID,
			ClientID:      ap.ClientID,
			BarberID:      ap.BarberID,
			Status:        ledger.CommandOpen,
		}
		if err := tx.CreateCommand(ctx, cmd); err != nil {
			return err
		}

		price := ap.Price
		if _, err := addLine(ctx, tx, cmd, AddItemInput{
			Actor:     actor,
			CommandID: cmd.ID,
			ItemType:  ledger.ItemService,
			ServiceID: ap.ServiceID,
			Quantity:  1,
			price:     &price,
		}, time.Now()); err != nil {
			return err
		}

		if err := recompute(ctx, tx, cmd); err != nil {
			return err
		}

		out = cmd
		created = true
		return nil
	})
	if err != nil {
		// outro request abriu a comanda primeiro
		if httperr.IsUniqueViolation(err) {
			return uc.reload(ctx, actor, appointmentID)
		}
		return nil, err
	}

	if created {
		uc.audit.Dispatch(audit.Event{
			BarbershopID: actor.BarbershopID,
			UserID:       &actor.UserID,
			Action:       "command_opened",
			Entity:       "command",
			EntityID:     &out.ID,
			Metadata:     map[string]any{"appointment_id": appointmentID},
		})
	}
	return out, nil
}

func (uc *OpenForAppointment) reload(ctx context.Context, actor staff.Actor, appointmentID uint) (*models.Command, error) {
	existing, err := uc.repo.FindCommandForAppointment(ctx, actor.BarbershopID, appointmentID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, httperr.ErrBusiness("command_not_found")
	}
	return uc.repo.GetCommand(ctx, actor.BarbershopID, existing.ID)
}
