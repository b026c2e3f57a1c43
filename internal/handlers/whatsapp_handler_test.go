package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/assistant"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/recovery"
	ucappointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
	ucconversation "github.com/BruksfildServices01/barber-manager/internal/usecase/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

type cannedResponder struct {
	reply    string
	messages []string
}

func (r *cannedResponder) Respond(_ context.Context, req assistant.Request) (string, error) {
	r.messages = append(r.messages, req.Message)
	return r.reply, nil
}

type recordingGateway struct {
	whatsapp.Disabled
	texts   []string
	webhook string
}

func (g *recordingGateway) SendText(_ context.Context, _, _, text string) error {
	g.texts = append(g.texts, text)
	return nil
}

func (g *recordingGateway) SetWebhook(_ context.Context, _, url string) error {
	g.webhook = url
	return nil
}

func (e *env) whatsappHandlers(responder assistant.Responder, gw whatsapp.Gateway) (*WhatsAppHandler, *FunctionsHandler) {
	appts := infraRepo.NewAppointmentGormRepository(e.db)
	convs := infraRepo.NewConversationGormRepository(e.db)

	handle := ucconversation.NewHandleMessage(convs, responder, gw, assistant.BookingDeps{
		Repo:         appts,
		Availability: ucappointment.NewGetAvailability(appts),
		Create:       ucappointment.NewCreateAppointment(appts, audit.Discard{}, cache.NewMemory()),
	}, audit.Discard{})
	rec := recovery.NewService(convs, gw, e.cfg.WebhookURL, audit.Discard{})

	return NewWhatsAppHandler(e.db, handle, rec, gw, e.cfg.WebhookURL, audit.Discard{}),
		NewFunctionsHandler(e.db, nil, handle, rec, audit.Discard{})
}

func inboundPayload(instance, text string) map[string]any {
	return map[string]any{
		"event":    "messages.upsert",
		"instance": instance,
		"data": map[string]any{
			"key":      map[string]any{"remoteJid": "5511977776666@s.whatsapp.net", "fromMe": false, "id": "ABC123"},
			"pushName": "Davi",
			"message":  map[string]any{"conversation": text},
		},
	}
}

func TestWhatsAppWebhookRepliesThroughGateway(t *testing.T) {
	e := newEnv(t)
	mustCreate(t, e.db, &models.WhatsAppInstance{BarbershopID: e.shop.ID, InstanceName: "navalha-01", Status: whatsapp.StateOpen})

	responder := &cannedResponder{reply: "Olá Davi! Como posso ajudar?"}
	gw := &recordingGateway{}
	h, _ := e.whatsappHandlers(responder, gw)

	r := gin.New()
	r.POST("/webhooks/whatsapp/:instance", h.Webhook)

	w := do(r, http.MethodPost, "/webhooks/whatsapp/navalha-01", inboundPayload("navalha-01", "Oi, quero cortar"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("webhook = %d %s", w.Code, w.Body)
	}
	var res struct {
		Reply string `json:"reply"`
		Sent  bool   `json:"sent"`
	}
	decode(t, w, &res)
	if res.Reply != responder.reply || !res.Sent {
		t.Fatalf("result %+v", res)
	}
	if len(gw.texts) != 1 || gw.texts[0] != responder.reply {
		t.Fatalf("sent %v", gw.texts)
	}

	var stored int64
	e.db.Model(&models.WhatsAppMessage{}).Count(&stored)
	if stored != 2 {
		t.Fatalf("%d messages stored", stored)
	}

	// status e mensagens de outras instâncias são confirmados e ignorados
	w = do(r, http.MethodPost, "/webhooks/whatsapp/navalha-01", map[string]any{"event": "connection.update"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("other event = %d", w.Code)
	}
	w = do(r, http.MethodPost, "/webhooks/whatsapp/desconhecida", inboundPayload("desconhecida", "Oi"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown instance = %d", w.Code)
	}
	if len(responder.messages) != 1 {
		t.Fatalf("assistant called %d times", len(responder.messages))
	}
}

func TestSaveInstancePointsWebhookHere(t *testing.T) {
	e := newEnv(t)
	gw := &recordingGateway{}
	h, _ := e.whatsappHandlers(&cannedResponder{}, gw)

	r, api := e.api()
	api.PUT("/me/whatsapp", h.SaveInstance)
	api.GET("/me/whatsapp", h.GetInstance)

	admin := e.token(t, e.ana)

	w := do(r, http.MethodGet, "/api/me/whatsapp", nil, admin)
	if w.Code != http.StatusNotFound {
		t.Fatalf("before save = %d", w.Code)
	}

	w = do(r, http.MethodPut, "/api/me/whatsapp", map[string]any{"instance_name": "navalha-01"}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d %s", w.Code, w.Body)
	}
	if gw.webhook != "http://api.test/webhooks/whatsapp/navalha-01" {
		t.Fatalf("webhook set to %q", gw.webhook)
	}

	w = do(r, http.MethodGet, "/api/me/whatsapp", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("after save = %d", w.Code)
	}
	var inst models.WhatsAppInstance
	decode(t, w, &inst)
	if inst.InstanceName != "navalha-01" || inst.Status != "configured" {
		t.Fatalf("instance %+v", inst)
	}
}

func TestFunctionsAssistantAndShopScope(t *testing.T) {
	e := newEnv(t)
	responder := &cannedResponder{reply: "Temos horários amanhã."}
	_, fn := e.whatsappHandlers(responder, &recordingGateway{})

	r := gin.New()
	g := r.Group("/functions/v1", middleware.FunctionsCORS())
	g.POST("/whatsapp-ai-assistant", fn.WhatsAppAssistant)
	g.POST("/ai-analytics", middleware.AuthMiddleware(e.cfg), fn.AIAnalytics)

	w := do(r, http.MethodPost, "/functions/v1/whatsapp-ai-assistant", map[string]any{
		"message":       "Tem horário amanhã?",
		"phone":         "11977776666",
		"barbershop_id": e.shop.ID,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("assistant = %d %s", w.Code, w.Body)
	}
	var res struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}
	decode(t, w, &res)
	if !res.Success || res.Response != responder.reply {
		t.Fatalf("assistant result %+v", res)
	}

	w = do(r, http.MethodPost, "/functions/v1/whatsapp-ai-assistant", map[string]any{"message": "Oi", "phone": "11977776666"}, "")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "barbershop_required" {
		t.Fatalf("missing shop = %d %s", w.Code, w.Body)
	}

	admin := e.token(t, e.ana)
	w = do(r, http.MethodPost, "/functions/v1/ai-analytics", map[string]any{"barbershopId": e.shop.ID + 1}, admin)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign shop analytics = %d", w.Code)
	}
	w = do(r, http.MethodPost, "/functions/v1/ai-analytics", map[string]any{"barbershopId": e.shop.ID}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("analytics = %d %s", w.Code, w.Body)
	}
}
