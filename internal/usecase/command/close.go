package command

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type CloseCommandInput struct {
	Actor          staff.Actor
	CommandID      uint
	PaymentMethod  string
	Discount       decimal.Decimal
	IdempotencyKey string
}

type CloseResult struct {
	Sale        *models.Sale        `json:"sale"`
	Commissions []models.Commission `json:"commissions,omitempty"`

	// Replayed is true when the command was already closed and the existing
	// sale is returned unchanged.
	Replayed bool `json:"replayed"`
}

type CloseCommand struct {
	repo  ledger.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewCloseCommand(repo ledger.Repository, a audit.Recorder) *CloseCommand {
	return &CloseCommand{repo: repo, audit: a, now: time.Now}
}

// Execute freezes the command and writes the sale, its items, one commission
// per item and the register totals in a single transaction. Running it again
// on a closed command returns the sale already written.
func (uc *CloseCommand) Execute(ctx context.Context, in CloseCommandInput) (*CloseResult, error) {
	method, err := ledger.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if _, err := uuid.Parse(key); err != nil {
		return nil, httperr.ErrBusiness("invalid_idempotency_key")
	}

	res := &CloseResult{}

	err = uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		cmd, err := load(ctx, tx, in.Actor, in.CommandID)
		if err != nil {
			return err
		}

		// --------------------------------------------------
		// Reexecução
		// --------------------------------------------------
		if cmd.Status == ledger.CommandClosed {
			sale, err := tx.GetSaleByCommand(ctx, cmd.ID)
			if err != nil {
				return err
			}
			if sale == nil {
				return httperr.ErrBusiness("command_closed")
			}
			res.Sale = sale
			res.Replayed = true
			return nil
		}

		if len(cmd.Items) == 0 {
			return httperr.ErrBusiness("empty_command")
		}

		// --------------------------------------------------
		// Valores
		// --------------------------------------------------
		total := ledger.CommandTotal(cmd.Items)
		final, err := ledger.FinalAmount(total, in.Discount)
		if err != nil {
			return err
		}

		reg, err := tx.GetOpenCashRegister(ctx, cmd.BarbershopID)
		if err != nil {
			return err
		}

		now := uc.now()

		// --------------------------------------------------
		// Venda
		// --------------------------------------------------
		sale := &models.Sale{
			BarbershopID:   cmd.BarbershopID,
			CommandID:      cmd.ID,
			ClientID:       cmd.ClientID,
			BarberID:       cmd.BarberID,
			TotalAmount:    total,
			DiscountAmount: ledger.Cents(in.Discount),
			FinalAmount:    final,
			PaymentMethod:  string(method),
			IdempotencyKey: key,
		}
		if reg != nil {
			sale.CashRegisterID = &reg.ID
		}
		for _, it := range cmd.Items {
			sale.Items = append(sale.Items, models.SaleItem{
				CommandItemID: it.ID,
				ItemType:      it.ItemType,
				ServiceID:     it.ServiceID,
				ProductID:     it.ProductID,
				Name:          it.Name,
				Quantity:      it.Quantity,
				UnitPrice:     it.UnitPrice,
				TotalPrice:    it.TotalPrice,
			})
		}
		if err := tx.CreateSale(ctx, sale); err != nil {
			if httperr.IsUniqueViolation(err) {
				return httperr.ErrBusiness("idempotency_key_reused")
			}
			return err
		}

		// --------------------------------------------------
		// Comissões (uma por item)
		// --------------------------------------------------
		commissions := make([]models.Commission, 0, len(cmd.Items))
		for i, it := range cmd.Items {
			commissions = append(commissions, models.Commission{
				BarbershopID:     cmd.BarbershopID,
				SaleID:           sale.ID,
				SaleItemID:       sale.Items[i].ID,
				CommandItemID:    it.ID,
				BarberID:         it.BarberID,
				BaseAmount:       it.TotalPrice,
				CommissionRate:   it.CommissionRate,
				CommissionAmount: ledger.Commission(it.TotalPrice, it.CommissionRate),
				Status:           "pending",
			})
		}
		if err := tx.CreateCommissions(ctx, commissions); err != nil {
			return err
		}

		// --------------------------------------------------
		// Comanda
		// --------------------------------------------------
		cmd.Status = ledger.CommandClosed
		cmd.TotalAmount = total
		cmd.ClosedAt = &now
		cmd.SaleID = &sale.ID
		if err := tx.SaveCommand(ctx, cmd); err != nil {
			return err
		}

		// --------------------------------------------------
		// Caixa
		// --------------------------------------------------
		if reg != nil {
			ledger.ApplySale(reg, final, method)
			if err := tx.SaveCashRegister(ctx, reg); err != nil {
				return err
			}
		}

		// --------------------------------------------------
		// Agendamento e cliente
		// --------------------------------------------------
		if cmd.AppointmentID != nil {
			if err := completeAppointment(ctx, tx, cmd.BarbershopID, *cmd.AppointmentID, now); err != nil {
				return err
			}
		}
		if err := tx.TouchClientVisit(ctx, cmd.ClientID, now); err != nil {
			return err
		}

		res.Sale = sale
		res.Commissions = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		uc.audit.Dispatch(audit.Event{
			BarbershopID: res.Sale.BarbershopID,
			UserID:       &in.Actor.UserID,
			Action:       "command_closed",
			Entity:       "command",
			EntityID:     &res.Sale.CommandID,
			Metadata: map[string]any{
				"sale_id":        res.Sale.ID,
				"final_amount":   res.Sale.FinalAmount.StringFixed(2),
				"payment_method": res.Sale.PaymentMethod,
			},
		})
	}
	return res, nil
}

func completeAppointment(ctx context.Context, tx ledger.Repository, barbershopID, appointmentID uint, now time.Time) error {
	ap, err := tx.GetAppointment(ctx, barbershopID, appointmentID)
	if err != nil {
		return err
	}

	st, err := appointment.ParseStatus(ap.Status)
	if err != nil {
		return err
	}
	if !st.Open() {
		return nil
	}

	if err := appointment.Complete(ap, now); err != nil {
		return err
	}
	return tx.SaveAppointment(ctx, ap)
}
