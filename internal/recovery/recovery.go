// Package recovery diagnoses and repairs the WhatsApp integration of a
// barbershop. Every fix checks the current state first, so running it twice
// changes nothing the first run already fixed.
package recovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/retry"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

const (
	ActionFullDiagnosis = "full_diagnosis"
	ActionRecoverSystem = "recover_system"
	ActionTestWebhook   = "test_webhook"
	ActionVerifyAndFix  = "verify_and_fix"
)

// Step names.
const (
	CheckConnection   = "connection"
	CheckWebhook      = "webhook"
	CheckWebhookReach = "webhook_reachable"
	FixWebhook        = "configure_webhook"
	FixConnection     = "reconnect"
)

type Step struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Changed  bool   `json:"changed"`
	Attempts int    `json:"attempts"`
	Detail   string `json:"detail,omitempty"`
}

type Report struct {
	RunID        string    `json:"run_id"`
	Action       string    `json:"action"`
	BarbershopID uint      `json:"barbershop_id"`
	Instance     string    `json:"instance"`
	Healthy      bool      `json:"healthy"`
	Checks       []Step    `json:"checks"`
	Fixes        []Step    `json:"fixes,omitempty"`
	Verification []Step    `json:"verification,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

type Service struct {
	repo       conversation.Repository
	gateway    whatsapp.Gateway
	webhookURL func(instance string) string
	audit      audit.Recorder
	http       *http.Client

	Policy retry.Policy
	// Settle is how long the connection poll keeps asking after a connect.
	Settle retry.Policy
	now    func() time.Time
}

func NewService(
	repo conversation.Repository,
	gateway whatsapp.Gateway,
	webhookURL func(instance string) string,
	a audit.Recorder,
) *Service {
	return &Service{
		repo:       repo,
		gateway:    gateway,
		webhookURL: webhookURL,
		audit:      a,
		http:       &http.Client{Timeout: 10 * time.Second},
		Policy: retry.Policy{
			MaxAttempts: 3,
			Initial:     300 * time.Millisecond,
			Max:         2 * time.Second,
			Multiplier:  2,
			Budget:      15 * time.Second,
		},
		Settle: retry.Policy{
			MaxAttempts: 5,
			Initial:     time.Second,
			Max:         4 * time.Second,
			Multiplier:  2,
			Budget:      20 * time.Second,
		},
		now: time.Now,
	}
}

// ======================================================
// RUN
// ======================================================

func (s *Service) Run(ctx context.Context, barbershopID uint, action string) (*Report, error) {
	switch action {
	case ActionFullDiagnosis, ActionRecoverSystem, ActionTestWebhook, ActionVerifyAndFix:
	default:
		return nil, httperr.ErrBusiness("invalid_action")
	}

	inst, err := s.repo.GetInstanceByShop(ctx, barbershopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness("instance_not_found")
		}
		return nil, err
	}

	r := &Report{
		RunID:        uuid.NewString(),
		Action:       action,
		BarbershopID: barbershopID,
		Instance:     inst.InstanceName,
		StartedAt:    s.now(),
	}
	log.Printf("[recovery] %s run %s on %s", action, r.RunID, inst.InstanceName)

	switch action {
	case ActionFullDiagnosis:
		r.Checks = s.diagnose(ctx, inst)
		r.Healthy = allOK(r.Checks)

	case ActionRecoverSystem:
		r.Checks = s.diagnose(ctx, inst)
		r.Fixes = s.fix(ctx, inst, r.Checks)
		r.Healthy = allOK(r.Fixes) && (len(r.Fixes) > 0 || allOK(r.Checks))

	case ActionVerifyAndFix:
		r.Checks = s.diagnose(ctx, inst)
		r.Fixes = s.fix(ctx, inst, r.Checks)
		if len(r.Fixes) > 0 {
			r.Verification = s.diagnose(ctx, inst)
			r.Healthy = allOK(r.Verification)
		} else {
			r.Healthy = allOK(r.Checks)
		}

	case ActionTestWebhook:
		webhook := s.checkWebhook(ctx, inst)
		r.Checks = []Step{webhook, s.pingWebhook(ctx, inst)}
		r.Healthy = allOK(r.Checks)
	}

	r.FinishedAt = s.now()
	s.record(ctx, inst, r)
	return r, nil
}

// ======================================================
// CHECKS
// ======================================================

func (s *Service) diagnose(ctx context.Context, inst *models.WhatsAppInstance) []Step {
	return []Step{
		s.checkConnection(ctx, inst),
		s.checkWebhook(ctx, inst),
	}
}

func (s *Service) checkConnection(ctx context.Context, inst *models.WhatsAppInstance) Step {
	step := Step{Name: CheckConnection}
	var state string
	err := s.attempt(ctx, s.Policy, &step, func(ctx context.Context) error {
		var err error
		state, err = s.gateway.ConnectionState(ctx, inst.InstanceName)
		return err
	})
	if err != nil {
		step.Detail = err.Error()
		return step
	}
	inst.Status = state
	step.OK = state == whatsapp.StateOpen
	step.Detail = "state: " + state
	return step
}

func (s *Service) checkWebhook(ctx context.Context, inst *models.WhatsAppInstance) Step {
	step := Step{Name: CheckWebhook}
	want := s.webhookURL(inst.InstanceName)

	var hook *whatsapp.Webhook
	err := s.attempt(ctx, s.Policy, &step, func(ctx context.Context) error {
		var err error
		hook, err = s.gateway.FindWebhook(ctx, inst.InstanceName)
		return err
	})
	if err != nil {
		step.Detail = err.Error()
		return step
	}

	switch {
	case hook == nil || !hook.Enabled:
		step.Detail = "webhook desativado"
	case hook.URL != want:
		step.Detail = fmt.Sprintf("url %q, esperado %q", hook.URL, want)
	default:
		step.OK = true
		step.Detail = hook.URL
	}
	return step
}

// pingWebhook posts a harmless event to our own webhook route.
func (s *Service) pingWebhook(ctx context.Context, inst *models.WhatsAppInstance) Step {
	step := Step{Name: CheckWebhookReach}
	url := s.webhookURL(inst.InstanceName)

	body, _ := json.Marshal(whatsapp.WebhookPayload{Event: "recovery.test", Instance: inst.InstanceName})
	err := s.attempt(ctx, s.Policy, &step, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook answered %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		step.Detail = err.Error()
		return step
	}
	step.OK = true
	step.Detail = url
	return step
}

// ======================================================
// FIXES
// ======================================================

// fix repairs only the checks that failed.
func (s *Service) fix(ctx context.Context, inst *models.WhatsAppInstance, checks []Step) []Step {
	var fixes []Step
	for _, c := range checks {
		if c.OK {
			continue
		}
		switch c.Name {
		case CheckWebhook:
			fixes = append(fixes, s.fixWebhook(ctx, inst))
		case CheckConnection:
			fixes = append(fixes, s.fixConnection(ctx, inst))
		}
	}
	return fixes
}

func (s *Service) fixWebhook(ctx context.Context, inst *models.WhatsAppInstance) Step {
	step := Step{Name: FixWebhook}
	want := s.webhookURL(inst.InstanceName)

	err := s.attempt(ctx, s.Policy, &step, func(ctx context.Context) error {
		// another run may already have fixed it
		hook, err := s.gateway.FindWebhook(ctx, inst.InstanceName)
		if err == nil && hook != nil && hook.Enabled && hook.URL == want {
			return nil
		}
		if err := s.gateway.SetWebhook(ctx, inst.InstanceName, want); err != nil {
			return err
		}
		step.Changed = true
		return nil
	})
	if err != nil {
		step.Detail = err.Error()
		return step
	}

	inst.WebhookURL = want
	step.OK = true
	step.Detail = want
	return step
}

// fixConnection asks Evolution to reconnect and waits for the open state.
// A restart is tried when connect alone does not bring the instance up.
func (s *Service) fixConnection(ctx context.Context, inst *models.WhatsAppInstance) Step {
	step := Step{Name: FixConnection}

	for _, kick := range []func(context.Context, string) error{s.gateway.Connect, s.gateway.Restart} {
		if state, err := s.gateway.ConnectionState(ctx, inst.InstanceName); err == nil && state == whatsapp.StateOpen {
			inst.Status = state
			step.OK = true
			step.Detail = "state: " + state
			return step
		}

		if err := s.attempt(ctx, s.Policy, &step, func(ctx context.Context) error {
			return kick(ctx, inst.InstanceName)
		}); err != nil {
			step.Detail = err.Error()
			continue
		}
		step.Changed = true

		var state string
		err := s.attempt(ctx, s.Settle, &step, func(ctx context.Context) error {
			var err error
			state, err = s.gateway.ConnectionState(ctx, inst.InstanceName)
			if err != nil {
				return err
			}
			if state != whatsapp.StateOpen {
				return fmt.Errorf("state %s", state)
			}
			return nil
		})
		if state != "" {
			inst.Status = state
		}
		if err == nil {
			step.OK = true
			step.Detail = "state: " + state
			return step
		}
		step.Detail = err.Error()
	}
	return step
}

// ======================================================
// HELPERS
// ======================================================

// attempt runs fn under p and counts the calls into step.
func (s *Service) attempt(ctx context.Context, p retry.Policy, step *Step, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, p, func(ctx context.Context) error {
		step.Attempts++
		err := fn(ctx)
		if isPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// isPermanent reports errors retrying cannot fix: a missing gateway or a
// client error other than rate limiting.
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, whatsapp.ErrDisabled) {
		return true
	}
	var apiErr *whatsapp.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests
	}
	return false
}

func (s *Service) record(ctx context.Context, inst *models.WhatsAppInstance, r *Report) {
	checked := r.FinishedAt
	inst.LastCheckedAt = &checked
	if err := s.repo.SaveInstance(ctx, inst); err != nil {
		log.Printf("[recovery] save instance %s: %v", inst.InstanceName, err)
	}

	failed := 0
	for _, steps := range [][]Step{r.Checks, r.Fixes, r.Verification} {
		for _, st := range steps {
			if !st.OK {
				failed++
			}
		}
	}

	s.audit.Dispatch(audit.Event{
		BarbershopID: r.BarbershopID,
		Action:       "whatsapp_recovery_run",
		Entity:       "whatsapp_instance",
		EntityID:     &inst.ID,
		Metadata: map[string]any{
			"run_id":  r.RunID,
			"action":  r.Action,
			"healthy": r.Healthy,
			"failed":  failed,
		},
	})
}

func allOK(steps []Step) bool {
	for _, s := range steps {
		if !s.OK {
			return false
		}
	}
	return true
}
