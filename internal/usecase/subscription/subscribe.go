package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
)

type SubscribeInput struct {
	Actor    staff.Actor
	ClientID uint
	PlanID   uint

	// PaidInStore activates the subscription at once, the first month having
	// been charged at the counter.
	PaidInStore bool
}

type SubscribeResult struct {
	Subscription *models.ClientSubscription `json:"subscription"`
	Checkout     *payments.Checkout         `json:"checkout,omitempty"`
}

type Subscribe struct {
	repo            domain.Repository
	gateway         payments.Gateway
	audit           audit.Recorder
	notificationURL string
	now             func() time.Time
}

// notificationURL is where the gateway posts payment updates.
func NewSubscribe(repo domain.Repository, gateway payments.Gateway, a audit.Recorder, notificationURL string) *Subscribe {
	return &Subscribe{
		repo:            repo,
		gateway:         gateway,
		audit:           a,
		notificationURL: notificationURL,
		now:             time.Now,
	}
}

func (uc *Subscribe) Execute(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	if !in.Actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	shopID := in.Actor.BarbershopID

	plan, err := uc.repo.GetPlan(ctx, shopID, in.PlanID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !plan.Active) {
		return nil, httperr.ErrBusiness("plan_not_found")
	}
	if err != nil {
		return nil, err
	}

	client, err := uc.repo.GetClient(ctx, shopID, in.ClientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("client_not_found")
	}
	if err != nil {
		return nil, err
	}

	current, err := uc.repo.FindOpenSubscription(ctx, shopID, client.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, httperr.ErrBusiness("subscription_already_active")
	}

	sub := &models.ClientSubscription{
		BarbershopID:     shopID,
		ClientID:         client.ID,
		PlanID:           plan.ID,
		Status:           ledger.SubscriptionPending,
		PaymentReference: uuid.NewString(),
	}

	if in.PaidInStore {
		err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
			ledger.Renew(sub, plan, uc.now())
			if err := tx.CreateSubscription(ctx, sub); err != nil {
				return err
			}
			return tx.CreatePayment(ctx, &models.SubscriptionPayment{
				BarbershopID:   shopID,
				SubscriptionID: sub.ID,
				PlanID:         plan.ID,
				PaymentID:      "store:" + sub.PaymentReference,
				Amount:         plan.MonthlyPrice,
				PaidAt:         *sub.CurrentPeriodStart,
			})
		})
		if err != nil {
			return nil, err
		}
		sub.Plan = *plan
		uc.dispatch(in.Actor, sub, "subscription_created")
		return &SubscribeResult{Subscription: sub}, nil
	}

	checkout, err := uc.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		Title:             fmt.Sprintf("%s - %s", plan.Name, client.Name),
		Amount:            plan.MonthlyPrice,
		ExternalReference: sub.PaymentReference,
		NotificationURL:   uc.notificationURL,
	})
	if errors.Is(err, payments.ErrDisabled) {
		return nil, httperr.ErrBusiness("payments_unavailable")
	}
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	if err := uc.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = *plan

	uc.dispatch(in.Actor, sub, "subscription_created")
	return &SubscribeResult{Subscription: sub, Checkout: checkout}, nil
}

func (uc *Subscribe) dispatch(actor staff.Actor, sub *models.ClientSubscription, action string) {
	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       action,
		Entity:       "client_subscription",
		EntityID:     &sub.ID,
		Metadata:     map[string]any{"status": sub.Status, "plan_id": sub.PlanID},
	})
}
