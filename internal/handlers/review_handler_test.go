package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
)

func TestReviewSubmitAndSummary(t *testing.T) {
	e := newEnv(t)
	h := NewReviewHandler(e.db, audit.Discard{})

	r, api := e.api()
	r.GET("/review/:slug", h.Page)
	r.POST("/review/:slug", h.Submit)
	api.GET("/reviews/summary", h.Summary)

	w := do(r, http.MethodGet, "/review/navalha?barber=999", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("page = %d %s", w.Code, w.Body)
	}
	w = do(r, http.MethodGet, "/review/nao-existe", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown shop page = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/review/navalha", map[string]any{"nps": 11}, "")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_nps" {
		t.Fatalf("nps 11 = %d %s", w.Code, w.Body)
	}

	for _, nps := range []int{10, 9, 3} {
		w = do(r, http.MethodPost, "/review/navalha", map[string]any{"nps": nps, "comment": "ok"}, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("submit %d = %d %s", nps, w.Code, w.Body)
		}
	}

	w = do(r, http.MethodGet, "/api/reviews/summary", nil, e.token(t, e.ana))
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d %s", w.Code, w.Body)
	}
	var s struct {
		Total     int `json:"total"`
		Promoters int `json:"promoters"`
		NPS       int `json:"nps"`
	}
	decode(t, w, &s)
	// 2 promotores, 1 detrator em 3 respostas
	if s.Total != 3 || s.Promoters != 2 || s.NPS != 33 {
		t.Fatalf("summary %+v", s)
	}
}

func TestPaymentWebhookIgnoresOtherTopics(t *testing.T) {
	e := newEnv(t)
	h := NewSubscriptionHandler(e.db, payments.Disabled{}, audit.Discard{}, "http://api.test/webhooks/mercadopago")

	r := gin.New()
	r.POST("/webhooks/mercadopago", h.PaymentWebhook)

	w := do(r, http.MethodPost, "/webhooks/mercadopago?topic=merchant_order&id=42", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("merchant_order = %d %s", w.Code, w.Body)
	}
	var res map[string]any
	decode(t, w, &res)
	if res["status"] != "ignored" {
		t.Fatalf("result %v", res)
	}
}
