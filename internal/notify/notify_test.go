package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type recorder struct {
	tokens []string
	msgs   []Message
	err    error
}

func (r *recorder) Send(_ context.Context, token string, msg Message) error {
	r.tokens = append(r.tokens, token)
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestNewBookingMessage(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ap := &models.Appointment{
		ID:        42,
		Source:    "whatsapp",
		StartTime: time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC),
	}

	msg := NewBookingMessage(ap, "Carlos", "Corte", loc)
	if msg.Body != "Carlos marcou Corte em 09/03 às 14:30" {
		t.Fatalf("unexpected body %q", msg.Body)
	}
	if msg.Data["appointment_id"] != "42" || msg.Data["source"] != "whatsapp" {
		t.Fatalf("unexpected data %v", msg.Data)
	}
}

func TestNotifyBarberSkipsMissingToken(t *testing.T) {
	r := &recorder{}
	NotifyBarber(t.Context(), r, &models.User{ID: 1}, Message{Title: "x"})
	NotifyBarber(t.Context(), r, nil, Message{Title: "x"})
	if len(r.tokens) != 0 {
		t.Fatalf("expected no push, got %d", len(r.tokens))
	}

	r.err = errors.New("unregistered")
	NotifyBarber(t.Context(), r, &models.User{ID: 2, FCMToken: "tok"}, Message{Title: "x"})
	if len(r.tokens) != 1 || r.tokens[0] != "tok" {
		t.Fatalf("expected one push to tok, got %v", r.tokens)
	}
}

func TestNewWithoutCredentialsIsNoop(t *testing.T) {
	if _, ok := New(t.Context(), "").(Noop); !ok {
		t.Fatalf("expected Noop notifier")
	}
}
