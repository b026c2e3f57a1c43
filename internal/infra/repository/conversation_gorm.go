package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-manager/internal/domain/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type ConversationGormRepository struct {
	db *gorm.DB
}

func NewConversationGormRepository(db *gorm.DB) *ConversationGormRepository {
	return &ConversationGormRepository{db: db}
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

// --------------------------------------------------
// Instance
// --------------------------------------------------

func (r *ConversationGormRepository) GetInstanceByName(ctx context.Context, name string) (*models.WhatsAppInstance, error) {
	var inst models.WhatsAppInstance
	if err := r.db.WithContext(ctx).Where("instance_name = ?", name).First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *ConversationGormRepository) GetInstanceByShop(ctx context.Context, barbershopID uint) (*models.WhatsAppInstance, error) {
	var inst models.WhatsAppInstance
	if err := r.db.WithContext(ctx).Where("barbershop_id = ?", barbershopID).First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *ConversationGormRepository) SaveInstance(ctx context.Context, inst *models.WhatsAppInstance) error {
	return r.db.WithContext(ctx).Save(inst).Error
}

// --------------------------------------------------
// Conversation
// --------------------------------------------------

func (r *ConversationGormRepository) FindOrCreate(ctx context.Context, barbershopID uint, phone string) (*models.WhatsAppConversation, error) {
	conv := models.WhatsAppConversation{
		BarbershopID:  barbershopID,
		Phone:         phone,
		Status:        conversation.StatusAI,
		LastMessageAt: time.Now(),
	}

	// duas mensagens simultâneas do mesmo número: o índice único decide
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&conv).Error; err != nil {
		return nil, err
	}

	var out models.WhatsAppConversation
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND phone = ?", barbershopID, phone).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ConversationGormRepository) GetConversation(ctx context.Context, barbershopID, id uint) (*models.WhatsAppConversation, error) {
	var conv models.WhatsAppConversation
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", id, barbershopID).
		First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationGormRepository) SaveConversation(ctx context.Context, conv *models.WhatsAppConversation) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

func (r *ConversationGormRepository) ListConversations(ctx context.Context, barbershopID uint, status string) ([]models.WhatsAppConversation, error) {
	q := r.db.WithContext(ctx).Where("barbershop_id = ?", barbershopID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []models.WhatsAppConversation
	err := q.Order("last_message_at DESC").Limit(200).Find(&out).Error
	return out, err
}

// --------------------------------------------------
// Messages
// --------------------------------------------------

func (r *ConversationGormRepository) AddMessage(ctx context.Context, msg *models.WhatsAppMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *ConversationGormRepository) HasExternalMessage(ctx context.Context, conversationID uint, externalID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.WhatsAppMessage{}).
		Where("conversation_id = ? AND external_id = ?", conversationID, externalID).
		Count(&n).Error
	return n > 0, err
}

func (r *ConversationGormRepository) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]models.WhatsAppMessage, error) {
	var out []models.WhatsAppMessage
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *ConversationGormRepository) TouchConversation(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.WhatsAppConversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}
