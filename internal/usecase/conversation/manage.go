package conversation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

const messagesPageSize = 100

// ======================================================
// SET STATUS (assumir / devolver para a IA)
// ======================================================

type SetStatus struct {
	repo  domain.Repository
	audit audit.Recorder
}

func NewSetStatus(repo domain.Repository, a audit.Recorder) *SetStatus {
	return &SetStatus{repo: repo, audit: a}
}

func (uc *SetStatus) Execute(ctx context.Context, actor staff.Actor, id uint, status string) (*models.WhatsAppConversation, error) {
	if status != domain.StatusAI && status != domain.StatusHuman {
		return nil, httperr.ErrBusiness("invalid_status")
	}

	conv, err := load(ctx, uc.repo, actor.BarbershopID, id)
	if err != nil {
		return nil, err
	}
	if conv.Status == status {
		return conv, nil
	}

	conv.Status = status
	if err := uc.repo.SaveConversation(ctx, conv); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "conversation_status_changed",
		Entity:       "whatsapp_conversation",
		EntityID:     &conv.ID,
		Metadata:     map[string]any{"status": status},
	})
	return conv, nil
}

// ======================================================
// QUERIES
// ======================================================

type ListConversations struct {
	repo domain.Repository
}

func NewListConversations(repo domain.Repository) *ListConversations {
	return &ListConversations{repo: repo}
}

// Execute lists the shop's conversations, newest activity first. An empty
// status lists all of them.
func (uc *ListConversations) Execute(ctx context.Context, barbershopID uint, status string) ([]models.WhatsAppConversation, error) {
	if status != "" && status != domain.StatusAI && status != domain.StatusHuman {
		return nil, httperr.ErrBusiness("invalid_status")
	}
	return uc.repo.ListConversations(ctx, barbershopID, status)
}

type ListMessages struct {
	repo domain.Repository
}

func NewListMessages(repo domain.Repository) *ListMessages {
	return &ListMessages{repo: repo}
}

func (uc *ListMessages) Execute(ctx context.Context, barbershopID, conversationID uint) ([]models.WhatsAppMessage, error) {
	if _, err := load(ctx, uc.repo, barbershopID, conversationID); err != nil {
		return nil, err
	}
	return uc.repo.RecentMessages(ctx, conversationID, messagesPageSize)
}

func load(ctx context.Context, repo domain.Repository, barbershopID, id uint) (*models.WhatsAppConversation, error) {
	conv, err := repo.GetConversation(ctx, barbershopID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness("conversation_not_found")
		}
		return nil, err
	}
	return conv, nil
}
