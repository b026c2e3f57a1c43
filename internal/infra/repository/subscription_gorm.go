package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type SubscriptionGormRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewSubscriptionGormRepository(db *gorm.DB) *SubscriptionGormRepository {
	return &SubscriptionGormRepository{db: db}
}

var _ subscription.Repository = (*SubscriptionGormRepository)(nil)

func (r *SubscriptionGormRepository) Transaction(
	ctx context.Context,
	fn func(tx subscription.Repository) error,
) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SubscriptionGormRepository{db: tx, inTx: true})
	})
}

// --------------------------------------------------
// Plans
// --------------------------------------------------

func (r *SubscriptionGormRepository) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Omit("Services").Create(plan).Error
}

func (r *SubscriptionGormRepository) SavePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).
		Model(plan).
		Select("Name", "MonthlyPrice", "IncludedServices", "CommissionPercentage", "Active").
		Updates(plan).Error
}

func (r *SubscriptionGormRepository) ReplacePlanServices(
	ctx context.Context,
	plan *models.SubscriptionPlan,
	services []models.Service,
) error {
	if err := r.db.WithContext(ctx).Model(plan).Association("Services").Replace(services); err != nil {
		return err
	}
	plan.Services = services
	return nil
}

func (r *SubscriptionGormRepository) GetPlan(ctx context.Context, barbershopID, planID uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Preload("Services").
		Where("id = ? AND barbershop_id = ?", planID, barbershopID).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionGormRepository) ListPlans(ctx context.Context, barbershopID uint, onlyActive bool) ([]models.SubscriptionPlan, error) {
	q := r.db.WithContext(ctx).
		Preload("Services").
		Where("barbershop_id = ?", barbershopID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}

	var plans []models.SubscriptionPlan
	err := q.Order("name ASC").Find(&plans).Error
	return plans, err
}

func (r *SubscriptionGormRepository) ListServicesByIDs(ctx context.Context, barbershopID uint, ids []uint) ([]models.Service, error) {
	var services []models.Service
	if len(ids) == 0 {
		return services, nil
	}
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND id IN ?", barbershopID, ids).
		Find(&services).Error
	return services, err
}

// --------------------------------------------------
// Client subscriptions
// --------------------------------------------------

func (r *SubscriptionGormRepository) GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", clientID, barbershopID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SubscriptionGormRepository) CreateSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	return r.db.WithContext(ctx).Omit("Plan").Create(sub).Error
}

func (r *SubscriptionGormRepository) SaveSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	return r.db.WithContext(ctx).Omit("Plan").Save(sub).Error
}

func (r *SubscriptionGormRepository) GetSubscription(ctx context.Context, barbershopID, id uint) (*models.ClientSubscription, error) {
	var sub models.ClientSubscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("id = ? AND barbershop_id = ?", id, barbershopID).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionGormRepository) FindByReference(ctx context.Context, reference string) (*models.ClientSubscription, error) {
	var sub models.ClientSubscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("payment_reference = ?", reference).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionGormRepository) FindOpenSubscription(ctx context.Context, barbershopID, clientID uint) (*models.ClientSubscription, error) {
	var sub models.ClientSubscription
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND client_id = ? AND status IN ?",
			barbershopID, clientID,
			[]string{ledger.SubscriptionActive, ledger.SubscriptionPending},
		).
		Order("id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionGormRepository) ListClientSubscriptions(ctx context.Context, barbershopID, clientID uint) ([]models.ClientSubscription, error) {
	var subs []models.ClientSubscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("barbershop_id = ? AND client_id = ?", barbershopID, clientID).
		Order("id DESC").
		Find(&subs).Error
	return subs, err
}

// --------------------------------------------------
// Payments / payout
// --------------------------------------------------

func (r *SubscriptionGormRepository) CreatePayment(ctx context.Context, p *models.SubscriptionPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *SubscriptionGormRepository) ListPayments(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.SubscriptionPayment, error) {
	var rows []models.SubscriptionPayment
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND paid_at >= ? AND paid_at < ?", barbershopID, from, to).
		Order("paid_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *SubscriptionGormRepository) CountCoveredServices(ctx context.Context, barbershopID uint, from, to time.Time) ([]subscription.CoveredCount, error) {
	var rows []subscription.CoveredCount
	err := r.db.WithContext(ctx).
		Table("command_items AS ci").
		Select("cs.plan_id AS plan_id, ci.barber_id AS barber_id, COUNT(*) AS services").
		Joins("JOIN client_subscriptions cs ON cs.id = ci.client_subscription_id").
		Joins("JOIN commands c ON c.id = ci.command_id").
		Where("c.barbershop_id = ? AND c.status = ? AND c.closed_at >= ? AND c.closed_at < ?",
			barbershopID, ledger.CommandClosed, from, to).
		Group("cs.plan_id, ci.barber_id").
		Order("cs.plan_id, ci.barber_id").
		Scan(&rows).Error
	return rows, err
}

func (r *SubscriptionGormRepository) ListStaff(ctx context.Context, barbershopID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ?", barbershopID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
