package command

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type AddItemInput struct {
	Actor     staff.Actor
	CommandID uint

	ItemType  string
	ServiceID uint
	ProductID uint
	Quantity  int

	// Barber credited with the line. Defaults to the command's barber.
	BarberID uint

	// Set only when the line is derived from an appointment, whose price
	// was frozen at booking time.
	price *decimal.Decimal
}

// loadOpen fetches (and locks) a command the actor may change.
func loadOpen(ctx context.Context, tx ledger.Repository, actor staff.Actor, commandID uint) (*models.Command, error) {
	cmd, err := load(ctx, tx, actor, commandID)
	if err != nil {
		return nil, err
	}
	if cmd.Status != ledger.CommandOpen {
		return nil, httperr.ErrBusiness("command_closed")
	}
	return cmd, nil
}

func load(ctx context.Context, repo ledger.Repository, actor staff.Actor, commandID uint) (*models.Command, error) {
	cmd, err := repo.GetCommand(ctx, actor.BarbershopID, commandID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusiness("command_not_found")
	}
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(cmd.BarberID) {
		return nil, httperr.ErrBusiness("command_not_found")
	}
	return cmd, nil
}

// addLine prices and stores one item, applying subscription coverage to
// services and reserving stock for products.
func addLine(
	ctx context.Context,
	tx ledger.Repository,
	cmd *models.Command,
	in AddItemInput,
	now time.Time,
) (*models.CommandItem, error) {

	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.BarberID == 0 {
		in.BarberID = cmd.BarberID
	}

	barber, err := tx.GetBarber(ctx, cmd.BarbershopID, in.BarberID)
	if err != nil {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	it := &models.CommandItem{
		CommandID: cmd.ID,
		ItemType:  in.ItemType,
		BarberID:  barber.ID,
		Quantity:  in.Quantity,
	}

	switch in.ItemType {
	case ledger.ItemService:
		svc, err := tx.GetService(ctx, cmd.BarbershopID, in.ServiceID)
		if err != nil {
			return nil, httperr.ErrBusiness("service_not_found")
		}
		it.ServiceID = &svc.ID
		it.Name = svc.Name
		it.UnitPrice = svc.Price
		if in.price != nil {
			it.UnitPrice = *in.price
		}
		it.CommissionRate = barber.CommissionRate

		if in.Quantity == 1 {
			covered, err := coverWithSubscription(ctx, tx, cmd, svc.ID, now)
			if err != nil {
				return nil, err
			}
			if covered != nil {
				it.UnitPrice = decimal.Zero
				it.ClientSubscriptionID = covered
			}
		}

	case ledger.ItemProduct:
		p, err := tx.GetProduct(ctx, cmd.BarbershopID, in.ProductID)
		if err != nil {
			return nil, httperr.ErrBusiness("product_not_found")
		}
		it.ProductID = &p.ID
		it.Name = p.Name
		it.UnitPrice = p.Price
		it.CommissionRate = p.CommissionRate

		if in.Quantity > 0 {
			if err := tx.AdjustStock(ctx, p.ID, -in.Quantity); err != nil {
				return nil, err
			}
		}

	default:
		return nil, httperr.ErrBusiness("invalid_item_type")
	}

	if err := ledger.PriceLine(it); err != nil {
		return nil, err
	}

	if err := tx.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// coverWithSubscription consumes one included service from the client's
// active subscription. It returns the subscription id when the line is
// covered, nil when it must be charged.
func coverWithSubscription(
	ctx context.Context,
	tx ledger.Repository,
	cmd *models.Command,
	serviceID uint,
	now time.Time,
) (*uint, error) {

	sub, err := tx.FindActiveSubscription(ctx, cmd.BarbershopID, cmd.ClientID)
	if err != nil {
		return nil, err
	}
	if sub != nil && ledger.Advance(sub, &sub.Plan, now) {
		if err := tx.SaveSubscriptionPeriod(ctx, sub); err != nil {
			return nil, err
		}
	}
	if !ledger.Covers(sub, serviceID, now) {
		return nil, nil
	}

	ok, err := tx.ConsumeService(ctx, sub.ID)
	if err != nil || !ok {
		return nil, err
	}
	return &sub.ID, nil
}

// recompute rewrites the cached total from the stored items.
func recompute(ctx context.Context, tx ledger.Repository, cmd *models.Command) error {
	items, err := tx.ListItems(ctx, cmd.ID)
	if err != nil {
		return err
	}
	cmd.Items = items
	cmd.TotalAmount = ledger.CommandTotal(items)
	return tx.SaveCommand(ctx, cmd)
}
