package appointment

import (
	"testing"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ap := f.book(t, f.bruno.ID, "09:00")

	got, err := NewCancelAppointment(f.repo, audit.Discard{}, f.cache).Execute(t.Context(), f.admin(), ap.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != "cancelled" || got.CancelledAt == nil {
		t.Fatalf("unexpected %+v", got)
	}

	// horário volta a ficar livre
	f.book(t, f.bruno.ID, "09:00")
}

func TestBarberCannotTouchOthersAppointments(t *testing.T) {
	f := newFixture(t)
	ap := f.book(t, f.ana.ID, "09:00")

	_, err := NewConfirmAppointment(f.repo, audit.Discard{}, f.cache).Execute(t.Context(), f.barber(), ap.ID)
	if !httperr.IsBusiness(err, "appointment_not_found") {
		t.Fatalf("expected appointment_not_found, got %v", err)
	}

	own := f.book(t, f.bruno.ID, "09:00")
	got, err := NewConfirmAppointment(f.repo, audit.Discard{}, f.cache).Execute(t.Context(), f.barber(), own.ID)
	if err != nil || got.Status != "confirmed" {
		t.Fatalf("confirm own: %v %+v", err, got)
	}

	var stored models.Appointment
	f.db.First(&stored, own.ID)
	if stored.Status != "confirmed" || stored.ConfirmedAt == nil {
		t.Fatalf("not persisted: %+v", stored)
	}
}

func TestCompleteTwiceFails(t *testing.T) {
	f := newFixture(t)
	ap := f.book(t, f.bruno.ID, "11:00")

	uc := NewCompleteAppointment(f.repo, audit.Discard{}, f.cache)
	if _, err := uc.Execute(t.Context(), f.admin(), ap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Execute(t.Context(), f.admin(), ap.ID); !httperr.IsBusiness(err, "invalid_state") {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestNoShowBeforeStartIsRejected(t *testing.T) {
	f := newFixture(t)
	ap := f.book(t, f.bruno.ID, "11:00")

	_, err := NewMarkNoShow(f.repo, audit.Discard{}, f.cache).Execute(t.Context(), f.admin(), ap.ID)
	if !httperr.IsBusiness(err, "appointment_not_started") {
		t.Fatalf("expected appointment_not_started, got %v", err)
	}
}

func TestDeleteIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ap := f.book(t, f.bruno.ID, "11:00")

	uc := NewDeleteAppointment(f.repo, audit.Discard{}, f.cache)
	if err := uc.Execute(t.Context(), f.barber(), ap.ID); !httperr.IsBusiness(err, "forbidden") {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := uc.Execute(t.Context(), f.admin(), ap.ID); err != nil {
		t.Fatal(err)
	}

	var n int64
	f.db.Model(&models.Appointment{}).Where("id = ?", ap.ID).Count(&n)
	if n != 0 {
		t.Fatal("appointment still stored")
	}
}
