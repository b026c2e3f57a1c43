package recovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/retry"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

// fakeEvolution keeps the instance state in memory.
type fakeEvolution struct {
	state string
	hook  whatsapp.Webhook

	// connect brings the instance up only when true; restart always does.
	connectWorks bool
	// flaky fails the next n ConnectionState calls.
	flaky int

	connects, restarts, setHooks int
}

func (f *fakeEvolution) ConnectionState(context.Context, string) (string, error) {
	if f.flaky > 0 {
		f.flaky--
		return "", errors.New("timeout")
	}
	return f.state, nil
}

func (f *fakeEvolution) FindWebhook(context.Context, string) (*whatsapp.Webhook, error) {
	h := f.hook
	return &h, nil
}

func (f *fakeEvolution) SetWebhook(_ context.Context, _ string, url string) error {
	f.setHooks++
	f.hook = whatsapp.Webhook{Enabled: true, URL: url}
	return nil
}

func (f *fakeEvolution) Connect(context.Context, string) error {
	f.connects++
	if f.connectWorks {
		f.state = whatsapp.StateOpen
	}
	return nil
}

func (f *fakeEvolution) Restart(context.Context, string) error {
	f.restarts++
	f.state = whatsapp.StateOpen
	return nil
}

func (f *fakeEvolution) SendText(context.Context, string, string, string) error { return nil }

type fixture struct {
	db   *gorm.DB
	repo *repository.ConversationGormRepository
	evo  *fakeEvolution
	shop models.Barbershop
	base string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, repo: repository.NewConversationGormRepository(db), evo: &fakeEvolution{}, base: "https://api.navalha.test"}

	f.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	if err := db.Create(&f.shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	if err := db.Create(&models.WhatsAppInstance{BarbershopID: f.shop.ID, InstanceName: "navalha-01"}).Error; err != nil {
		t.Fatalf("create instance: %v", err)
	}
	return f
}

func (f *fixture) service() *Service {
	s := NewService(f.repo, f.evo, func(instance string) string {
		return f.base + "/webhooks/whatsapp/" + instance
	}, audit.Discard{})
	fast := retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond}
	s.Policy = fast
	s.Settle = fast
	return s
}

func (f *fixture) healthy() {
	f.evo.state = whatsapp.StateOpen
	f.evo.hook = whatsapp.Webhook{Enabled: true, URL: f.base + "/webhooks/whatsapp/navalha-01"}
}

func TestFullDiagnosisHealthy(t *testing.T) {
	f := newFixture(t)
	f.healthy()
	f.evo.flaky = 2

	r, err := f.service().Run(t.Context(), f.shop.ID, ActionFullDiagnosis)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.Healthy || len(r.Checks) != 2 || r.RunID == "" {
		t.Fatalf("report = %+v", r)
	}
	if r.Checks[0].Attempts != 3 {
		t.Fatalf("connection attempts = %d, want 3", r.Checks[0].Attempts)
	}

	var inst models.WhatsAppInstance
	if err := f.db.First(&inst, "barbershop_id = ?", f.shop.ID).Error; err != nil {
		t.Fatalf("load instance: %v", err)
	}
	if inst.LastCheckedAt == nil || inst.Status != whatsapp.StateOpen {
		t.Fatalf("instance = %+v", inst)
	}
}

func TestDiagnosisDoesNotChangeAnything(t *testing.T) {
	f := newFixture(t)
	f.evo.state = whatsapp.StateClose

	r, err := f.service().Run(t.Context(), f.shop.ID, ActionFullDiagnosis)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.Healthy || len(r.Fixes) != 0 {
		t.Fatalf("report = %+v", r)
	}
	if f.evo.connects+f.evo.restarts+f.evo.setHooks != 0 {
		t.Fatalf("diagnosis acted on the gateway: %+v", f.evo)
	}
}

func TestRecoverSystemFixesOnlyWhatFailed(t *testing.T) {
	f := newFixture(t)
	f.healthy()
	f.evo.hook.URL = "https://old.example/hook"

	svc := f.service()
	r, err := svc.Run(t.Context(), f.shop.ID, ActionRecoverSystem)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.Healthy || len(r.Fixes) != 1 || r.Fixes[0].Name != FixWebhook || !r.Fixes[0].Changed {
		t.Fatalf("report = %+v", r)
	}
	if f.evo.connects != 0 || f.evo.setHooks != 1 {
		t.Fatalf("connects = %d setHooks = %d", f.evo.connects, f.evo.setHooks)
	}

	// segunda execução não mexe em nada
	again, err := svc.Run(t.Context(), f.shop.ID, ActionRecoverSystem)
	if err != nil {
		t.Fatalf("run again: %v", err)
	}
	if !again.Healthy || len(again.Fixes) != 0 || f.evo.setHooks != 1 {
		t.Fatalf("second run = %+v setHooks = %d", again, f.evo.setHooks)
	}
}

func TestVerifyAndFixFallsBackToRestart(t *testing.T) {
	f := newFixture(t)
	f.healthy()
	f.evo.state = whatsapp.StateClose

	r, err := f.service().Run(t.Context(), f.shop.ID, ActionVerifyAndFix)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.Healthy || len(r.Fixes) != 1 || r.Fixes[0].Name != FixConnection {
		t.Fatalf("report = %+v", r)
	}
	if f.evo.connects != 1 || f.evo.restarts != 1 {
		t.Fatalf("connects = %d restarts = %d", f.evo.connects, f.evo.restarts)
	}
	if len(r.Verification) != 2 || !r.Verification[0].OK {
		t.Fatalf("verification = %+v", r.Verification)
	}
}

func TestTestWebhookPingsRoute(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/webhooks/whatsapp/navalha-01" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFixture(t)
	f.base = srv.URL
	f.healthy()

	r, err := f.service().Run(t.Context(), f.shop.ID, ActionTestWebhook)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.Healthy || hits != 1 || r.Checks[1].Name != CheckWebhookReach {
		t.Fatalf("report = %+v hits = %d", r, hits)
	}
}

func TestRunErrors(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	if _, err := svc.Run(t.Context(), f.shop.ID, "reboot_everything"); !httperr.IsBusiness(err, "invalid_action") {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Run(t.Context(), 999, ActionFullDiagnosis); !httperr.IsBusiness(err, "instance_not_found") {
		t.Fatalf("err = %v", err)
	}
}

func TestDisabledGatewayIsNotRetried(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, whatsapp.Disabled{}, func(string) string { return "" }, audit.Discard{})

	r, err := svc.Run(t.Context(), f.shop.ID, ActionFullDiagnosis)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.Healthy || r.Checks[0].Attempts != 1 {
		t.Fatalf("report = %+v", r)
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{whatsapp.ErrDisabled, true},
		{&whatsapp.APIError{Status: 404}, true},
		{&whatsapp.APIError{Status: 429}, false},
		{&whatsapp.APIError{Status: 502}, false},
		{errors.New("dial tcp"), false},
	}
	for _, tc := range cases {
		if got := isPermanent(tc.err); got != tc.want {
			t.Fatalf("isPermanent(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
