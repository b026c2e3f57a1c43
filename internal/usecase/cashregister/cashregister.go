package cashregister

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// ======================================================
// OPEN
// ======================================================

type OpenRegister struct {
	repo  ledger.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewOpenRegister(repo ledger.Repository, a audit.Recorder) *OpenRegister {
	return &OpenRegister{repo: repo, audit: a, now: time.Now}
}

func (uc *OpenRegister) Execute(ctx context.Context, actor staff.Actor, openingBalance decimal.Decimal, notes string) (*models.CashRegister, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if openingBalance.IsNegative() {
		return nil, httperr.ErrBusiness("invalid_amount")
	}

	var reg *models.CashRegister
	err := uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		current, err := tx.GetOpenCashRegister(ctx, actor.BarbershopID)
		if err != nil {
			return err
		}
		if current != nil {
			return httperr.ErrBusiness("register_already_open")
		}

		reg = &models.CashRegister{
			BarbershopID:   actor.BarbershopID,
			OpenedBy:       actor.UserID,
			Status:         ledger.RegisterOpen,
			OpeningBalance: ledger.Cents(openingBalance),
			Notes:          notes,
			OpenedAt:       uc.now(),
		}
		return tx.CreateCashRegister(ctx, reg)
	})
	if err != nil {
		// índice parcial: só um caixa aberto por barbearia
		if httperr.IsUniqueViolation(err) {
			return nil, httperr.ErrBusiness("register_already_open")
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "cash_register_opened",
		Entity:       "cash_register",
		EntityID:     &reg.ID,
		Metadata:     map[string]any{"opening_balance": reg.OpeningBalance.StringFixed(2)},
	})
	return reg, nil
}

// ======================================================
// CLOSE
// ======================================================

type CloseRegister struct {
	repo  ledger.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewCloseRegister(repo ledger.Repository, a audit.Recorder) *CloseRegister {
	return &CloseRegister{repo: repo, audit: a, now: time.Now}
}

// Execute closes the session with the cash counted in the drawer and records
// the difference against opening balance plus cash sales.
func (uc *CloseRegister) Execute(ctx context.Context, actor staff.Actor, registerID uint, counted decimal.Decimal, notes string) (*models.CashRegister, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if counted.IsNegative() {
		return nil, httperr.ErrBusiness("invalid_amount")
	}

	var reg *models.CashRegister
	err := uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		var err error
		reg, err = tx.GetCashRegister(ctx, actor.BarbershopID, registerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness("register_not_found")
		}
		if err != nil {
			return err
		}
		if reg.Status != ledger.RegisterOpen {
			return httperr.ErrBusiness("register_closed")
		}

		now := uc.now()
		closing := ledger.Cents(counted)
		diff := ledger.Cents(closing.Sub(ledger.ExpectedCash(reg)))

		reg.Status = ledger.RegisterClosed
		reg.ClosedBy = &actor.UserID
		reg.ClosedAt = &now
		reg.ClosingBalance = &closing
		reg.Difference = &diff
		if notes != "" {
			reg.Notes = notes
		}
		return tx.SaveCashRegister(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "cash_register_closed",
		Entity:       "cash_register",
		EntityID:     &reg.ID,
		Metadata: map[string]any{
			"closing_balance": reg.ClosingBalance.StringFixed(2),
			"difference":      reg.Difference.StringFixed(2),
		},
	})
	return reg, nil
}

// ======================================================
// QUERIES
// ======================================================

type Summary struct {
	Register     *models.CashRegister `json:"register"`
	ExpectedCash decimal.Decimal      `json:"expected_cash"`
	Sales        []models.Sale        `json:"sales"`
}

type Queries struct {
	repo ledger.Repository
}

func NewQueries(repo ledger.Repository) *Queries {
	return &Queries{repo: repo}
}

// Current returns the open session, or nil when the register is closed.
func (q *Queries) Current(ctx context.Context, actor staff.Actor) (*Summary, error) {
	reg, err := q.repo.GetOpenCashRegister(ctx, actor.BarbershopID)
	if err != nil || reg == nil {
		return nil, err
	}
	return q.summary(ctx, reg)
}

func (q *Queries) Get(ctx context.Context, actor staff.Actor, id uint) (*Summary, error) {
	reg, err := q.repo.GetCashRegister(ctx, actor.BarbershopID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("register_not_found")
	}
	if err != nil {
		return nil, err
	}
	return q.summary(ctx, reg)
}

func (q *Queries) List(ctx context.Context, actor staff.Actor, limit int) ([]models.CashRegister, error) {
	return q.repo.ListCashRegisters(ctx, actor.BarbershopID, limit)
}

func (q *Queries) summary(ctx context.Context, reg *models.CashRegister) (*Summary, error) {
	sales, err := q.repo.ListRegisterSales(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Register:     reg,
		ExpectedCash: ledger.ExpectedCash(reg),
		Sales:        sales,
	}, nil
}
