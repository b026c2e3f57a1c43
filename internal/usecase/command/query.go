package command

import (
	"context"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type GetCommand struct {
	repo ledger.Repository
}

func NewGetCommand(repo ledger.Repository) *GetCommand {
	return &GetCommand{repo: repo}
}

func (uc *GetCommand) Execute(ctx context.Context, actor staff.Actor, commandID uint) (*models.Command, error) {
	return load(ctx, uc.repo, actor, commandID)
}

type ListCommands struct {
	repo ledger.Repository
}

func NewListCommands(repo ledger.Repository) *ListCommands {
	return &ListCommands{repo: repo}
}

// Execute lists the shop's commands. Barbers only see their own.
func (uc *ListCommands) Execute(ctx context.Context, actor staff.Actor, f ledger.CommandFilter) ([]models.Command, error) {
	f.BarbershopID = actor.BarbershopID
	if !actor.Role.ManagesShop() {
		f.BarberID = actor.UserID
	}
	return uc.repo.ListCommands(ctx, f)
}
