package conversation

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// Who answers a conversation.
const (
	StatusAI    = "ai"
	StatusHuman = "human"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

type Repository interface {
	GetInstanceByName(ctx context.Context, name string) (*models.WhatsAppInstance, error)
	GetInstanceByShop(ctx context.Context, barbershopID uint) (*models.WhatsAppInstance, error)
	SaveInstance(ctx context.Context, inst *models.WhatsAppInstance) error

	// FindOrCreate returns the conversation of (shop, phone), creating it on
	// first contact.
	FindOrCreate(ctx context.Context, barbershopID uint, phone string) (*models.WhatsAppConversation, error)
	GetConversation(ctx context.Context, barbershopID, id uint) (*models.WhatsAppConversation, error)
	SaveConversation(ctx context.Context, conv *models.WhatsAppConversation) error
	ListConversations(ctx context.Context, barbershopID uint, status string) ([]models.WhatsAppConversation, error)

	AddMessage(ctx context.Context, msg *models.WhatsAppMessage) error
	// HasExternalMessage reports whether the provider message id was
	// already stored on the conversation.
	HasExternalMessage(ctx context.Context, conversationID uint, externalID string) (bool, error)
	// RecentMessages returns the last limit messages, oldest first.
	RecentMessages(ctx context.Context, conversationID uint, limit int) ([]models.WhatsAppMessage, error)
	TouchConversation(ctx context.Context, id uint, at time.Time) error
}
