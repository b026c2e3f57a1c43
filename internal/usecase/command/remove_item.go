package command

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type RemoveItem struct {
	repo  ledger.Repository
	audit audit.Recorder
}

func NewRemoveItem(repo ledger.Repository, a audit.Recorder) *RemoveItem {
	return &RemoveItem{repo: repo, audit: a}
}

// Execute deletes a line of an open command, giving back any subscription
// quota or stock it held.
func (uc *RemoveItem) Execute(ctx context.Context, actor staff.Actor, commandID, itemID uint) (*models.Command, error) {
	var cmd *models.Command

	err := uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		var err error
		cmd, err = loadOpen(ctx, tx, actor, commandID)
		if err != nil {
			return err
		}

		it, err := tx.GetItem(ctx, cmd.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness("item_not_found")
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteItem(ctx, it); err != nil {
			return err
		}

		if it.ClientSubscriptionID != nil {
			if err := tx.RestoreService(ctx, *it.ClientSubscriptionID); err != nil {
				return err
			}
		}
		if it.ProductID != nil && it.Quantity > 0 {
			if err := tx.AdjustStock(ctx, *it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		return recompute(ctx, tx, cmd)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: cmd.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "command_item_removed",
		Entity:       "command",
		EntityID:     &cmd.ID,
		Metadata:     map[string]any{"item_id": itemID},
	})
	return cmd, nil
}
