package models

import "time"

type WhatsAppInstance struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BarbershopID uint   `gorm:"uniqueIndex" json:"barbershop_id"`
	InstanceName string `gorm:"size:100;uniqueIndex" json:"instance_name"`

	Status        string     `gorm:"size:20" json:"status"`
	WebhookURL    string     `gorm:"size:255" json:"webhook_url"`
	LastCheckedAt *time.Time `json:"last_checked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WhatsAppConversation struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BarbershopID uint   `gorm:"uniqueIndex:idx_conversation_phone" json:"barbershop_id"`
	Phone        string `gorm:"size:20;uniqueIndex:idx_conversation_phone" json:"phone"`
	ClientID     *uint  `json:"client_id"`

	// ai | human
	Status        string    `gorm:"size:10;default:'ai'" json:"status"`
	LastMessageAt time.Time `json:"last_message_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WhatsAppMessage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ConversationID uint   `gorm:"index;uniqueIndex:idx_whatsapp_messages_external,where:external_id <> ''" json:"conversation_id"`
	Direction      string `gorm:"size:3" json:"direction"`
	Body           string `gorm:"type:text" json:"body"`
	// id do provedor; a mesma mensagem entregue de novo não é gravada duas vezes
	ExternalID string `gorm:"size:100;uniqueIndex:idx_whatsapp_messages_external" json:"external_id"`

	CreatedAt time.Time `json:"created_at"`
}
