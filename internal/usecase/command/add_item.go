package command

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type AddItem struct {
	repo  ledger.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewAddItem(repo ledger.Repository, a audit.Recorder) *AddItem {
	return &AddItem{repo: repo, audit: a, now: time.Now}
}

// Execute adds a line and recomputes the command total in one transaction.
// Quota consumption and stock reservation roll back with it.
func (uc *AddItem) Execute(ctx context.Context, in AddItemInput) (*models.Command, error) {
	var (
		cmd *models.Command
		it  *models.CommandItem
	)

	err := uc.repo.Transaction(ctx, func(tx ledger.Repository) error {
		var err error
		cmd, err = loadOpen(ctx, tx, in.Actor, in.CommandID)
		if err != nil {
			return err
		}

		it, err = addLine(ctx, tx, cmd, in, uc.now())
		if err != nil {
			return err
		}

		return recompute(ctx, tx, cmd)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: cmd.BarbershopID,
		UserID:       &in.Actor.UserID,
		Action:       "command_item_added",
		Entity:       "command",
		EntityID:     &cmd.ID,
		Metadata: map[string]any{
			"item_id":      it.ID,
			"item_type":    it.ItemType,
			"total_price":  it.TotalPrice.StringFixed(2),
			"subscription": it.ClientSubscriptionID != nil,
		},
	})
	return cmd, nil
}
