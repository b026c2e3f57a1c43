package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type LedgerGormRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewLedgerGormRepository(db *gorm.DB) *LedgerGormRepository {
	return &LedgerGormRepository{db: db}
}

func (r *LedgerGormRepository) Transaction(
	ctx context.Context,
	fn func(tx ledger.Repository) error,
) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerGormRepository{db: tx, inTx: true})
	})
}

func (r *LedgerGormRepository) locked(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// --------------------------------------------------
// Lookups
// --------------------------------------------------

func (r *LedgerGormRepository) GetAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Appointment, error) {
	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
		First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *LedgerGormRepository) GetService(ctx context.Context, barbershopID, serviceID uint) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ? AND active = ?", serviceID, barbershopID, true).
		First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *LedgerGormRepository) GetProduct(ctx context.Context, barbershopID, productID uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ? AND active = ?", productID, barbershopID, true).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LedgerGormRepository) GetBarber(ctx context.Context, barbershopID, barberID uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", barberID, barbershopID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *LedgerGormRepository) GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", clientID, barbershopID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// --------------------------------------------------
// Command
// --------------------------------------------------

func (r *LedgerGormRepository) CreateCommand(ctx context.Context, cmd *models.Command) error {
	return r.db.WithContext(ctx).Omit("Items", "Client").Create(cmd).Error
}

func (r *LedgerGormRepository) GetCommand(ctx context.Context, barbershopID, commandID uint) (*models.Command, error) {
	var cmd models.Command
	if err := r.locked(ctx).
		Where("id = ? AND barbershop_id = ?", commandID, barbershopID).
		First(&cmd).Error; err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	cmd.Items = items
	return &cmd, nil
}

// FindCommandForAppointment returns the appointment's command whatever its
// status, or nil when none was opened yet.
func (r *LedgerGormRepository) FindCommandForAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Command, error) {
	var cmd models.Command
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND appointment_id = ?", barbershopID, appointmentID).
		Order("id ASC").
		First(&cmd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (r *LedgerGormRepository) ListCommands(ctx context.Context, f ledger.CommandFilter) ([]models.Command, error) {
	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("barbershop_id = ?", f.BarbershopID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BarberID != 0 {
		q = q.Where("barber_id = ?", f.BarberID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var out []models.Command
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LedgerGormRepository) SaveCommand(ctx context.Context, cmd *models.Command) error {
	return r.db.WithContext(ctx).
		Model(cmd).
		Select("status", "total_amount", "notes", "closed_at", "sale_id", "updated_at").
		Updates(cmd).Error
}

func (r *LedgerGormRepository) ListItems(ctx context.Context, commandID uint) ([]models.CommandItem, error) {
	var items []models.CommandItem
	if err := r.db.WithContext(ctx).
		Where("command_id = ?", commandID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *LedgerGormRepository) CreateItem(ctx context.Context, it *models.CommandItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *LedgerGormRepository) GetItem(ctx context.Context, commandID, itemID uint) (*models.CommandItem, error) {
	var it models.CommandItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND command_id = ?", itemID, commandID).
		First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *LedgerGormRepository) DeleteItem(ctx context.Context, it *models.CommandItem) error {
	return r.db.WithContext(ctx).Delete(it).Error
}

func (r *LedgerGormRepository) AdjustStock(ctx context.Context, productID uint, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrBusiness("out_of_stock")
	}
	return nil
}

// --------------------------------------------------
// Subscription quota
// --------------------------------------------------

func (r *LedgerGormRepository) FindActiveSubscription(ctx context.Context, barbershopID, clientID uint) (*models.ClientSubscription, error) {
	var sub models.ClientSubscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Plan.Services").
		Where("barbershop_id = ? AND client_id = ? AND status = ?", barbershopID, clientID, ledger.SubscriptionActive).
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

func (r *LedgerGormRepository) ConsumeService(ctx context.Context, subscriptionID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ClientSubscription{}).
		Where("id = ? AND remaining_services > 0", subscriptionID).
		Update("remaining_services", gorm.Expr("remaining_services - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *LedgerGormRepository) RestoreService(ctx context.Context, subscriptionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ClientSubscription{}).
		Where("id = ?", subscriptionID).
		Update("remaining_services", gorm.Expr("remaining_services + 1")).Error
}

func (r *LedgerGormRepository) SaveSubscriptionPeriod(ctx context.Context, sub *models.ClientSubscription) error {
	return r.db.WithContext(ctx).
		Model(&models.ClientSubscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"status":               sub.Status,
			"remaining_services":   sub.RemainingServices,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"prepaid_periods":      sub.PrepaidPeriods,
		}).Error
}

// --------------------------------------------------
// Sale / commission
// --------------------------------------------------

func (r *LedgerGormRepository) GetSaleByCommand(ctx context.Context, commandID uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("command_id = ?", commandID).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *LedgerGormRepository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *LedgerGormRepository) CreateCommissions(ctx context.Context, rows []models.Commission) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *LedgerGormRepository) ListSales(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Sale, error) {
	var out []models.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("barbershop_id = ? AND created_at >= ? AND created_at < ?", barbershopID, from, to).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LedgerGormRepository) ListCommissions(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Commission, error) {
	var out []models.Commission
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND created_at >= ? AND created_at < ?", barbershopID, from, to).
		Order("barber_id ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --------------------------------------------------
// Side effects of a close
// --------------------------------------------------

func (r *LedgerGormRepository) SaveAppointment(ctx context.Context, ap *models.Appointment) error {
	return r.db.WithContext(ctx).
		Model(ap).
		Select("status", "completed_at").
		Updates(ap).Error
}

func (r *LedgerGormRepository) TouchClientVisit(ctx context.Context, clientID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", clientID).
		Update("last_visit_at", at).Error
}

// --------------------------------------------------
// Cash register
// --------------------------------------------------

func (r *LedgerGormRepository) GetOpenCashRegister(ctx context.Context, barbershopID uint) (*models.CashRegister, error) {
	var reg models.CashRegister
	err := r.locked(ctx).
		Where("barbershop_id = ? AND status = ?", barbershopID, ledger.RegisterOpen).
		Order("id DESC").
		First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *LedgerGormRepository) GetCashRegister(ctx context.Context, barbershopID, id uint) (*models.CashRegister, error) {
	var reg models.CashRegister
	if err := r.locked(ctx).
		Where("id = ? AND barbershop_id = ?", id, barbershopID).
		First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *LedgerGormRepository) CreateCashRegister(ctx context.Context, reg *models.CashRegister) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *LedgerGormRepository) SaveCashRegister(ctx context.Context, reg *models.CashRegister) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *LedgerGormRepository) ListCashRegisters(ctx context.Context, barbershopID uint, limit int) ([]models.CashRegister, error) {
	if limit <= 0 {
		limit = 30
	}
	var out []models.CashRegister
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ?", barbershopID).
		Order("opened_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LedgerGormRepository) ListRegisterSales(ctx context.Context, registerID uint) ([]models.Sale, error) {
	var out []models.Sale
	if err := r.db.WithContext(ctx).
		Where("cash_register_id = ?", registerID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var _ ledger.Repository = (*LedgerGormRepository)(nil)
