package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type PlanInput struct {
	Actor                staff.Actor
	Name                 string
	MonthlyPrice         decimal.Decimal
	IncludedServices     int
	CommissionPercentage decimal.Decimal
	ServiceIDs           []uint
}

// ======================================================
// CREATE
// ======================================================

type CreatePlan struct {
	repo  domain.Repository
	audit audit.Recorder
}

func NewCreatePlan(repo domain.Repository, a audit.Recorder) *CreatePlan {
	return &CreatePlan{repo: repo, audit: a}
}

func (uc *CreatePlan) Execute(ctx context.Context, in PlanInput) (*models.SubscriptionPlan, error) {
	if !in.Actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if err := validatePlan(in.Name, in.MonthlyPrice, in.IncludedServices, in.CommissionPercentage); err != nil {
		return nil, err
	}

	plan := &models.SubscriptionPlan{
		BarbershopID:         in.Actor.BarbershopID,
		Name:                 strings.TrimSpace(in.Name),
		MonthlyPrice:         ledger.Cents(in.MonthlyPrice),
		IncludedServices:     in.IncludedServices,
		CommissionPercentage: in.CommissionPercentage,
		Active:               true,
	}

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		services, err := loadServices(ctx, tx, in.Actor.BarbershopID, in.ServiceIDs)
		if err != nil {
			return err
		}
		if err := tx.CreatePlan(ctx, plan); err != nil {
			return err
		}
		return tx.ReplacePlanServices(ctx, plan, services)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.Actor.BarbershopID,
		UserID:       &in.Actor.UserID,
		Action:       "subscription_plan_created",
		Entity:       "subscription_plan",
		EntityID:     &plan.ID,
	})
	return plan, nil
}

// ======================================================
// UPDATE
// ======================================================

type UpdatePlanInput struct {
	Actor                staff.Actor
	PlanID               uint
	Name                 *string
	MonthlyPrice         *decimal.Decimal
	IncludedServices     *int
	CommissionPercentage *decimal.Decimal
	Active               *bool
	ServiceIDs           *[]uint
}

type UpdatePlan struct {
	repo  domain.Repository
	audit audit.Recorder
}

func NewUpdatePlan(repo domain.Repository, a audit.Recorder) *UpdatePlan {
	return &UpdatePlan{repo: repo, audit: a}
}

func (uc *UpdatePlan) Execute(ctx context.Context, in UpdatePlanInput) (*models.SubscriptionPlan, error) {
	if !in.Actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}

	var plan *models.SubscriptionPlan
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		plan, err = tx.GetPlan(ctx, in.Actor.BarbershopID, in.PlanID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness("plan_not_found")
		}
		if err != nil {
			return err
		}

		if in.Name != nil {
			plan.Name = strings.TrimSpace(*in.Name)
		}
		if in.MonthlyPrice != nil {
			plan.MonthlyPrice = ledger.Cents(*in.MonthlyPrice)
		}
		if in.IncludedServices != nil {
			plan.IncludedServices = *in.IncludedServices
		}
		if in.CommissionPercentage != nil {
			plan.CommissionPercentage = *in.CommissionPercentage
		}
		if in.Active != nil {
			plan.Active = *in.Active
		}
		if err := validatePlan(plan.Name, plan.MonthlyPrice, plan.IncludedServices, plan.CommissionPercentage); err != nil {
			return err
		}
		if err := tx.SavePlan(ctx, plan); err != nil {
			return err
		}

		if in.ServiceIDs != nil {
			services, err := loadServices(ctx, tx, in.Actor.BarbershopID, *in.ServiceIDs)
			if err != nil {
				return err
			}
			return tx.ReplacePlanServices(ctx, plan, services)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.Actor.BarbershopID,
		UserID:       &in.Actor.UserID,
		Action:       "subscription_plan_updated",
		Entity:       "subscription_plan",
		EntityID:     &plan.ID,
	})
	return plan, nil
}

// ======================================================
// LIST
// ======================================================

type ListPlans struct {
	repo domain.Repository
}

func NewListPlans(repo domain.Repository) *ListPlans {
	return &ListPlans{repo: repo}
}

func (uc *ListPlans) Execute(ctx context.Context, barbershopID uint, onlyActive bool) ([]models.SubscriptionPlan, error) {
	return uc.repo.ListPlans(ctx, barbershopID, onlyActive)
}

// ======================================================
// HELPERS
// ======================================================

func validatePlan(name string, price decimal.Decimal, included int, pct decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return httperr.ErrBusiness("invalid_plan_name")
	}
	if !price.IsPositive() {
		return httperr.ErrBusiness("invalid_price")
	}
	if included < 1 {
		return httperr.ErrBusiness("invalid_included_services")
	}
	return ledger.ValidateRate(pct)
}

func loadServices(ctx context.Context, repo domain.Repository, barbershopID uint, ids []uint) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, httperr.ErrBusiness("plan_services_required")
	}

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	services, err := repo.ListServicesByIDs(ctx, barbershopID, unique)
	if err != nil {
		return nil, err
	}
	if len(services) != len(unique) {
		return nil, httperr.ErrBusiness("service_not_found")
	}
	return services, nil
}
