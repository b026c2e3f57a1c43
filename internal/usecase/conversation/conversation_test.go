package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/assistant"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	ucappointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

// scripted runs the given tool calls and then answers with reply.
type scripted struct {
	calls []assistant.ToolCall
	reply string
	err   error

	requests []assistant.Request
	results  []map[string]any
}

func (s *scripted) Respond(ctx context.Context, req assistant.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	for _, c := range s.calls {
		s.results = append(s.results, req.Tools.Execute(ctx, c))
	}
	return s.reply, nil
}

type sent struct{ instance, number, text string }

type fakeGateway struct {
	whatsapp.Disabled
	sent    []sent
	sendErr error
}

func (g *fakeGateway) SendText(_ context.Context, instance, number, text string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sent{instance, number, text})
	return nil
}

type fixture struct {
	db      *gorm.DB
	repo    *repository.ConversationGormRepository
	appts   *repository.AppointmentGormRepository
	gateway *fakeGateway
	shop    models.Barbershop
	bruno   models.User
	service models.Service
	day     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:      db,
		repo:    repository.NewConversationGormRepository(db),
		appts:   repository.NewAppointmentGormRepository(db),
		gateway: &fakeGateway{},
	}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC", SlotMinutes: 30, MinAdvanceMinutes: 60}
	mustCreate(t, db, &f.shop)
	f.bruno = models.User{BarbershopID: f.shop.ID, Name: "Bruno", Email: "bruno@navalha.test", PasswordHash: "x", Role: "barber", Active: true}
	mustCreate(t, db, &f.bruno)
	f.service = models.Service{BarbershopID: f.shop.ID, Name: "Corte", DurationMin: 30, Price: decimal.NewFromInt(45), Active: true}
	mustCreate(t, db, &f.service)
	for wd := 0; wd < 7; wd++ {
		mustCreate(t, db, &models.BusinessHours{BarbershopID: f.shop.ID, Weekday: wd, OpenTime: "09:00", CloseTime: "18:00"})
	}
	mustCreate(t, db, &models.WhatsAppInstance{BarbershopID: f.shop.ID, InstanceName: "navalha-01", Status: whatsapp.StateOpen})

	d := time.Now().UTC().AddDate(0, 0, 7)
	f.day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) handler(r assistant.Responder) *HandleMessage {
	c := cache.NewMemory()
	return NewHandleMessage(f.repo, r, f.gateway, assistant.BookingDeps{
		Repo:         f.appts,
		Availability: ucappointment.NewGetAvailability(f.appts),
		Create:       ucappointment.NewCreateAppointment(f.appts, audit.Discard{}, c),
	}, audit.Discard{})
}

func (f *fixture) inbound(text string) MessageInput {
	return MessageInput{Instance: "navalha-01", Phone: "5511977776666@s.whatsapp.net", Name: "Davi", Text: text, Deliver: true}
}

func TestHandleMessageRepliesAndStoresBothSides(t *testing.T) {
	f := newFixture(t)
	model := &scripted{reply: "Olá Davi! Qual serviço você quer?"}
	uc := f.handler(model)

	res, err := uc.Execute(t.Context(), f.inbound("oi"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Reply != model.reply || res.Status != domain.StatusAI || !res.Sent {
		t.Fatalf("result = %+v", res)
	}
	if len(f.gateway.sent) != 1 || f.gateway.sent[0].instance != "navalha-01" || f.gateway.sent[0].number != "5511977776666" {
		t.Fatalf("sent = %+v", f.gateway.sent)
	}

	// segunda mensagem recebe o histórico anterior
	if _, err := uc.Execute(t.Context(), f.inbound("corte")); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	hist := model.requests[1].History
	if len(hist) != 2 || hist[0].Role != assistant.RoleUser || hist[1].Role != assistant.RoleModel || hist[0].Text != "oi" {
		t.Fatalf("history = %+v", hist)
	}
	if model.requests[1].Message != "corte" {
		t.Fatalf("message = %q", model.requests[1].Message)
	}

	msgs, err := NewListMessages(f.repo).Execute(t.Context(), f.shop.ID, res.ConversationID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 4 || msgs[0].Direction != domain.DirectionIn || msgs[3].Direction != domain.DirectionOut {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestHandleMessageBooksThroughTools(t *testing.T) {
	f := newFixture(t)
	model := &scripted{
		calls: []assistant.ToolCall{{
			Name: assistant.ToolCreateBooking,
			Args: map[string]any{
				"date":        f.day.Format("2006-01-02"),
				"time":        "10:00",
				"service_id":  float64(f.service.ID),
				"barber_id":   float64(f.bruno.ID),
				"client_name": "Davi",
			},
		}},
		reply: "Agendado!",
	}

	res, err := f.handler(model).Execute(t.Context(), f.inbound("pode marcar às 10"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.AppointmentID == nil {
		t.Fatalf("no appointment, tool result = %v", model.results)
	}

	var ap models.Appointment
	if err := f.db.First(&ap, *res.AppointmentID).Error; err != nil {
		t.Fatalf("load appointment: %v", err)
	}
	if ap.Source != ucappointment.SourceWhatsApp || ap.BarberID != f.bruno.ID {
		t.Fatalf("appointment = %+v", ap)
	}

	conv, err := f.repo.GetConversation(t.Context(), f.shop.ID, res.ConversationID)
	if err != nil {
		t.Fatalf("load conversation: %v", err)
	}
	if conv.ClientID == nil || *conv.ClientID != ap.ClientID {
		t.Fatalf("conversation client = %v, want %d", conv.ClientID, ap.ClientID)
	}
}

func TestHandoffSilencesAssistant(t *testing.T) {
	f := newFixture(t)
	model := &scripted{calls: []assistant.ToolCall{{Name: assistant.ToolTransferToHuman, Args: map[string]any{"reason": "pediu atendente"}}}}
	uc := f.handler(model)

	res, err := uc.Execute(t.Context(), f.inbound("quero falar com alguém"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != domain.StatusHuman || res.Reply != handoffReply {
		t.Fatalf("result = %+v", res)
	}

	again, err := uc.Execute(t.Context(), f.inbound("alô?"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if again.Reply != "" || len(model.requests) != 1 || len(f.gateway.sent) != 1 {
		t.Fatalf("assistant should stay silent: %+v, requests %d, sent %d", again, len(model.requests), len(f.gateway.sent))
	}

	// equipe devolve para a IA
	actor := staff.Actor{UserID: f.bruno.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}
	conv, err := NewSetStatus(f.repo, audit.Discard{}).Execute(t.Context(), actor, res.ConversationID, domain.StatusAI)
	if err != nil || conv.Status != domain.StatusAI {
		t.Fatalf("set status: %v %+v", err, conv)
	}
}

func TestModelFailureFallsBackToHuman(t *testing.T) {
	f := newFixture(t)
	f.gateway.sendErr = errors.New("evolution down")

	res, err := f.handler(&scripted{err: errors.New("quota")}).Execute(t.Context(), f.inbound("oi"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Reply != fallbackReply || res.Status != domain.StatusHuman || res.Sent {
		t.Fatalf("result = %+v", res)
	}
}

func TestHandleMessageValidation(t *testing.T) {
	f := newFixture(t)
	uc := f.handler(&scripted{reply: "ok"})

	cases := []struct {
		name string
		in   MessageInput
		code string
	}{
		{"bad phone", MessageInput{BarbershopID: f.shop.ID, Phone: "123", Text: "oi"}, "invalid_phone"},
		{"empty text", MessageInput{BarbershopID: f.shop.ID, Phone: "11977776666", Text: "  "}, "message_required"},
		{"unknown instance", MessageInput{Instance: "nope", Phone: "11977776666", Text: "oi"}, "instance_not_found"},
		{"no shop", MessageInput{Phone: "11977776666", Text: "oi"}, "barbershop_required"},
	}
	for _, tc := range cases {
		if _, err := uc.Execute(t.Context(), tc.in); !httperr.IsBusiness(err, tc.code) {
			t.Fatalf("%s: err = %v, want %s", tc.name, err, tc.code)
		}
	}
}

func TestSetStatusAndList(t *testing.T) {
	f := newFixture(t)
	res, err := f.handler(&scripted{reply: "oi"}).Execute(t.Context(), MessageInput{BarbershopID: f.shop.ID, Phone: "11977776666", Text: "oi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Sent {
		t.Fatalf("reply should not be delivered")
	}

	actor := staff.Actor{UserID: f.bruno.ID, BarbershopID: f.shop.ID, Role: staff.RoleBarber}
	set := NewSetStatus(f.repo, audit.Discard{})

	if _, err := set.Execute(t.Context(), actor, res.ConversationID, "robot"); !httperr.IsBusiness(err, "invalid_status") {
		t.Fatalf("err = %v", err)
	}
	if _, err := set.Execute(t.Context(), actor, 999, domain.StatusHuman); !httperr.IsBusiness(err, "conversation_not_found") {
		t.Fatalf("err = %v", err)
	}
	if _, err := set.Execute(t.Context(), actor, res.ConversationID, domain.StatusHuman); err != nil {
		t.Fatalf("take over: %v", err)
	}

	human, err := NewListConversations(f.repo).Execute(t.Context(), f.shop.ID, domain.StatusHuman)
	if err != nil || len(human) != 1 {
		t.Fatalf("human conversations = %v %v", human, err)
	}
	ai, err := NewListConversations(f.repo).Execute(t.Context(), f.shop.ID, domain.StatusAI)
	if err != nil || len(ai) != 0 {
		t.Fatalf("ai conversations = %v %v", ai, err)
	}
}

func TestRedeliveredMessageIsHandledOnce(t *testing.T) {
	f := newFixture(t)
	model := &scripted{reply: "Olá! Qual serviço você quer?"}
	uc := f.handler(model)

	in := f.inbound("oi")
	in.ExternalID = "3EB0C767D26A1D"

	first, err := uc.Execute(t.Context(), in)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first.Duplicate || !first.Sent {
		t.Fatalf("first delivery = %+v", first)
	}

	again, err := uc.Execute(t.Context(), in)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !again.Duplicate || again.Sent || again.Reply != "" || again.ConversationID != first.ConversationID {
		t.Fatalf("redelivery = %+v", again)
	}
	if len(model.requests) != 1 || len(f.gateway.sent) != 1 {
		t.Fatalf("assistant ran %d times, sent %d replies", len(model.requests), len(f.gateway.sent))
	}

	var stored int64
	f.db.Model(&models.WhatsAppMessage{}).Where("conversation_id = ?", first.ConversationID).Count(&stored)
	if stored != 2 {
		t.Fatalf("stored messages = %d", stored)
	}

	// mensagens sem id do provedor seguem valendo
	if _, err := uc.Execute(t.Context(), f.inbound("oi")); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Execute(t.Context(), f.inbound("oi")); err != nil {
		t.Fatal(err)
	}
	if len(model.requests) != 3 {
		t.Fatalf("messages without id must all be answered, got %d", len(model.requests))
	}
}

func TestMessageIndexRejectsSameExternalID(t *testing.T) {
	f := newFixture(t)
	conv, err := f.repo.FindOrCreate(t.Context(), f.shop.ID, "5511977776666")
	if err != nil {
		t.Fatal(err)
	}

	msg := func() *models.WhatsAppMessage {
		return &models.WhatsAppMessage{ConversationID: conv.ID, Direction: domain.DirectionIn, Body: "oi", ExternalID: "ABC"}
	}
	if err := f.repo.AddMessage(t.Context(), msg()); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.AddMessage(t.Context(), msg()); !httperr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation got %v", err)
	}

	seen, err := f.repo.HasExternalMessage(t.Context(), conv.ID, "ABC")
	if err != nil || !seen {
		t.Fatalf("seen = %v err = %v", seen, err)
	}
}
