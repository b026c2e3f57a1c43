package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
)

type PaymentOutcome struct {
	Subscription *models.ClientSubscription `json:"subscription,omitempty"`
	Status       string                     `json:"status"`
	Applied      bool                       `json:"applied"`
}

// ApplyPayment handles a gateway notification. The payment is fetched from
// the gateway, never trusted from the request body. Approved payments renew
// the subscription once per payment id.
type ApplyPayment struct {
	repo    domain.Repository
	gateway payments.Gateway
	audit   audit.Recorder
	now     func() time.Time
}

func NewApplyPayment(repo domain.Repository, gateway payments.Gateway, a audit.Recorder) *ApplyPayment {
	return &ApplyPayment{repo: repo, gateway: gateway, audit: a, now: time.Now}
}

func (uc *ApplyPayment) Execute(ctx context.Context, paymentID string) (*PaymentOutcome, error) {
	if paymentID == "" {
		return nil, httperr.ErrBusiness("invalid_payment_id")
	}

	info, err := uc.gateway.GetPayment(ctx, paymentID)
	if errors.Is(err, payments.ErrDisabled) {
		return nil, httperr.ErrBusiness("payments_unavailable")
	}
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}

	sub, err := uc.repo.FindByReference(ctx, info.ExternalReference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("subscription_not_found")
	}
	if err != nil {
		return nil, err
	}

	if info.Status != payments.StatusApproved {
		log.Printf("[subscription] payment %s for subscription %d is %s", info.ID, sub.ID, info.Status)
		return &PaymentOutcome{Subscription: sub, Status: info.Status}, nil
	}
	if sub.Status == ledger.SubscriptionCancelled {
		log.Printf("[subscription] payment %s approved for cancelled subscription %d", info.ID, sub.ID)
		return &PaymentOutcome{Subscription: sub, Status: info.Status}, nil
	}

	now := uc.now()
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if err := tx.CreatePayment(ctx, &models.SubscriptionPayment{
			BarbershopID:   sub.BarbershopID,
			SubscriptionID: sub.ID,
			PlanID:         sub.PlanID,
			PaymentID:      info.ID,
			Amount:         info.Amount,
			PaidAt:         now,
		}); err != nil {
			return err
		}

		// renovação antecipada fica na fila até o fim do período atual
		ledger.Credit(sub, &sub.Plan, now)
		sub.LastPaymentID = info.ID
		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		if httperr.IsUniqueViolation(err) || isDuplicatePayment(ctx, uc.repo, sub, info.ID) {
			return &PaymentOutcome{Subscription: sub, Status: info.Status}, nil
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: sub.BarbershopID,
		Action:       "subscription_renewed",
		Entity:       "client_subscription",
		EntityID:     &sub.ID,
		Metadata:     map[string]any{"payment_id": info.ID},
	})
	return &PaymentOutcome{Subscription: sub, Status: info.Status, Applied: true}, nil
}

// isDuplicatePayment covers drivers that do not surface a pg error code.
func isDuplicatePayment(ctx context.Context, repo domain.Repository, sub *models.ClientSubscription, paymentID string) bool {
	fresh, err := repo.GetSubscription(ctx, sub.BarbershopID, sub.ID)
	if err != nil {
		return false
	}
	if fresh.LastPaymentID == paymentID {
		*sub = *fresh
		return true
	}
	return false
}
