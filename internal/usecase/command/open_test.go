package command

import (
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func TestOpenForAppointmentIsLazyAndSingle(t *testing.T) {
	f := newFixture(t)

	start := time.Now().Add(time.Hour).Truncate(time.Minute)
	ap := models.Appointment{
		BarbershopID: f.shop.ID,
		BarberID:     f.barber.ID,
		ClientID:     f.client.ID,
		ServiceID:    f.haircut.ID,
		StartTime:    start,
		EndTime:      start.Add(30 * time.Minute),
		Price:        dec("45"),
		Status:       "scheduled",
	}
	mustCreate(t, f.db, &ap)

	uc := NewOpenForAppointment(f.repo, audit.Discard{})

	cmd, err := uc.Execute(t.Context(), f.actor(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmd.Items) != 1 || !cmd.Items[0].UnitPrice.Equal(dec("45")) {
		t.Fatalf("appointment service should be pre-filled at booked price: %+v", cmd.Items)
	}
	if !cmd.TotalAmount.Equal(dec("45")) {
		t.Fatalf("total = %s", cmd.TotalAmount)
	}

	again, err := uc.Execute(t.Context(), f.actor(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != cmd.ID || len(again.Items) != 1 {
		t.Fatalf("expected the same command, got %d", again.ID)
	}

	res, err := NewCloseCommand(f.repo, audit.Discard{}).Execute(t.Context(), CloseCommandInput{
		Actor: f.actor(), CommandID: cmd.ID, PaymentMethod: "credit_card",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sale.CashRegisterID != nil {
		t.Fatal("no register was open")
	}

	var stored models.Appointment
	f.db.First(&stored, ap.ID)
	if stored.Status != "completed" {
		t.Fatalf("appointment status = %s", stored.Status)
	}
}

func TestAppointmentIsBilledOnce(t *testing.T) {
	f := newFixture(t)

	start := time.Now().Add(-2 * time.Hour).Truncate(time.Minute)
	ap := models.Appointment{
		BarbershopID: f.shop.ID,
		BarberID:     f.barber.ID,
		ClientID:     f.client.ID,
		ServiceID:    f.haircut.ID,
		StartTime:    start,
		EndTime:      start.Add(30 * time.Minute),
		Price:        dec("45"),
		Status:       "confirmed",
	}
	mustCreate(t, f.db, &ap)

	open := NewOpenForAppointment(f.repo, audit.Discard{})
	closeUC := NewCloseCommand(f.repo, audit.Discard{})

	first, err := open.Execute(t.Context(), f.actor(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	sale, err := closeUC.Execute(t.Context(), CloseCommandInput{
		Actor: f.actor(), CommandID: first.ID, PaymentMethod: "pix",
	})
	if err != nil {
		t.Fatal(err)
	}

	// a consulta já está concluída; reabrir devolve a mesma comanda fechada
	again, err := open.Execute(t.Context(), f.actor(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID || again.Status != "closed" {
		t.Fatalf("got command %d status %s, want closed %d", again.ID, again.Status, first.ID)
	}

	replay, err := closeUC.Execute(t.Context(), CloseCommandInput{
		Actor: f.actor(), CommandID: again.ID, PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !replay.Replayed || replay.Sale.ID != sale.Sale.ID {
		t.Fatalf("expected replay of sale %d, got %+v", sale.Sale.ID, replay.Sale)
	}

	var commands, sales, commissions int64
	f.db.Model(&models.Command{}).Where("appointment_id = ?", ap.ID).Count(&commands)
	f.db.Model(&models.Sale{}).Count(&sales)
	f.db.Model(&models.Commission{}).Count(&commissions)
	if commands != 1 || sales != 1 || commissions != 1 {
		t.Fatalf("commands=%d sales=%d commissions=%d, want 1 each", commands, sales, commissions)
	}
}

func TestCommandPerAppointmentIsUnique(t *testing.T) {
	f := newFixture(t)

	apID := uint(77)
	mustCreate(t, f.db, &models.Command{BarbershopID: f.shop.ID, AppointmentID: &apID, ClientID: f.client.ID, BarberID: f.barber.ID, Status: "closed"})

	err := f.db.Create(&models.Command{BarbershopID: f.shop.ID, AppointmentID: &apID, ClientID: f.client.ID, BarberID: f.barber.ID, Status: "open"}).Error
	if err == nil {
		t.Fatal("second command for the same appointment was accepted")
	}

	// comandas avulsas não têm consulta e não colidem
	f.open(t)
	f.open(t)
}
