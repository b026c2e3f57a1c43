package subscription

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// CoveredCount is the number of covered service lines a barber sold for a
// plan inside a period.
type CoveredCount struct {
	PlanID   uint
	BarberID uint
	Services int
}

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// -------- Plans --------
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	SavePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	// ReplacePlanServices rewrites the allowlist of a plan.
	ReplacePlanServices(ctx context.Context, plan *models.SubscriptionPlan, services []models.Service) error
	GetPlan(ctx context.Context, barbershopID, planID uint) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, barbershopID uint, onlyActive bool) ([]models.SubscriptionPlan, error)
	ListServicesByIDs(ctx context.Context, barbershopID uint, ids []uint) ([]models.Service, error)

	// -------- Client subscriptions --------
	GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error)
	CreateSubscription(ctx context.Context, sub *models.ClientSubscription) error
	SaveSubscription(ctx context.Context, sub *models.ClientSubscription) error
	GetSubscription(ctx context.Context, barbershopID, id uint) (*models.ClientSubscription, error)
	FindByReference(ctx context.Context, reference string) (*models.ClientSubscription, error)
	// FindOpenSubscription returns the active or pending subscription of a
	// client, or nil.
	FindOpenSubscription(ctx context.Context, barbershopID, clientID uint) (*models.ClientSubscription, error)
	ListClientSubscriptions(ctx context.Context, barbershopID, clientID uint) ([]models.ClientSubscription, error)

	// -------- Payments / payout --------
	CreatePayment(ctx context.Context, p *models.SubscriptionPayment) error
	ListPayments(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.SubscriptionPayment, error)
	CountCoveredServices(ctx context.Context, barbershopID uint, from, to time.Time) ([]CoveredCount, error)
	ListStaff(ctx context.Context, barbershopID uint) ([]models.User, error)
}
