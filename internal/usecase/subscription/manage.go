package subscription

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// ======================================================
// CANCEL
// ======================================================

type CancelSubscription struct {
	repo  domain.Repository
	audit audit.Recorder
}

func NewCancelSubscription(repo domain.Repository, a audit.Recorder) *CancelSubscription {
	return &CancelSubscription{repo: repo, audit: a}
}

func (uc *CancelSubscription) Execute(ctx context.Context, actor staff.Actor, id uint) (*models.ClientSubscription, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}

	sub, err := uc.repo.GetSubscription(ctx, actor.BarbershopID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("subscription_not_found")
	}
	if err != nil {
		return nil, err
	}
	if sub.Status == ledger.SubscriptionCancelled {
		return nil, httperr.ErrBusiness("subscription_cancelled")
	}

	sub.Status = ledger.SubscriptionCancelled
	if err := uc.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "subscription_cancelled",
		Entity:       "client_subscription",
		EntityID:     &sub.ID,
	})
	return sub, nil
}

// ======================================================
// LIST PER CLIENT
// ======================================================

type ListClientSubscriptions struct {
	repo domain.Repository
}

func NewListClientSubscriptions(repo domain.Repository) *ListClientSubscriptions {
	return &ListClientSubscriptions{repo: repo}
}

func (uc *ListClientSubscriptions) Execute(ctx context.Context, barbershopID, clientID uint) ([]models.ClientSubscription, error) {
	if _, err := uc.repo.GetClient(ctx, barbershopID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness("client_not_found")
		}
		return nil, err
	}
	return uc.repo.ListClientSubscriptions(ctx, barbershopID, clientID)
}
