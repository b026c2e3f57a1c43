package conversation

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/assistant"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

// historyLimit is how many stored messages are replayed to the model.
const historyLimit = 20

const (
	fallbackReply = "Desculpe, não consegui processar sua mensagem agora. Um atendente vai falar com você em instantes."
	handoffReply  = "Certo! Vou chamar um atendente para continuar o seu atendimento."
)

// ======================================================
// INPUT / RESULT
// ======================================================

type MessageInput struct {
	// Either BarbershopID or Instance identifies the shop.
	BarbershopID uint
	Instance     string

	Phone      string
	Name       string
	Text       string
	ExternalID string

	// Deliver sends the reply through WhatsApp. Off when the caller
	// relays the reply itself.
	Deliver bool
}

type MessageResult struct {
	ConversationID uint   `json:"conversation_id"`
	Status         string `json:"status"`
	Reply          string `json:"reply"`
	AppointmentID  *uint  `json:"appointment_id,omitempty"`
	Sent           bool   `json:"sent"`
	// Duplicate is set when the provider redelivered a message already
	// handled. Nothing is answered.
	Duplicate bool `json:"duplicate,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

type HandleMessage struct {
	repo      domain.Repository
	responder assistant.Responder
	gateway   whatsapp.Gateway
	booking   assistant.BookingDeps
	audit     audit.Recorder
	now       func() time.Time
}

func NewHandleMessage(
	repo domain.Repository,
	responder assistant.Responder,
	gateway whatsapp.Gateway,
	booking assistant.BookingDeps,
	a audit.Recorder,
) *HandleMessage {
	return &HandleMessage{
		repo:      repo,
		responder: responder,
		gateway:   gateway,
		booking:   booking,
		audit:     a,
		now:       time.Now,
	}
}

func (uc *HandleMessage) Execute(ctx context.Context, in MessageInput) (*MessageResult, error) {
	phone := validators.NormalizePhone(in.Phone)
	if !validators.IsPhoneValid(phone) {
		return nil, httperr.ErrBusiness("invalid_phone")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, httperr.ErrBusiness("message_required")
	}

	inst, shopID, err := uc.resolveShop(ctx, in)
	if err != nil {
		return nil, err
	}

	conv, err := uc.repo.FindOrCreate(ctx, shopID, phone)
	if err != nil {
		return nil, err
	}

	if in.ExternalID != "" {
		seen, err := uc.repo.HasExternalMessage(ctx, conv.ID, in.ExternalID)
		if err != nil {
			return nil, err
		}
		if seen {
			log.Printf("[whatsapp] message %s already handled on conversation %d", in.ExternalID, conv.ID)
			return &MessageResult{ConversationID: conv.ID, Status: conv.Status, Duplicate: true}, nil
		}
	}

	if err := uc.repo.AddMessage(ctx, &models.WhatsAppMessage{
		ConversationID: conv.ID,
		Direction:      domain.DirectionIn,
		Body:           text,
		ExternalID:     in.ExternalID,
	}); err != nil {
		// entrega repetida em paralelo
		if in.ExternalID != "" && httperr.IsUniqueViolation(err) {
			return &MessageResult{ConversationID: conv.ID, Status: conv.Status, Duplicate: true}, nil
		}
		return nil, err
	}
	now := uc.now()
	if err := uc.repo.TouchConversation(ctx, conv.ID, now); err != nil {
		return nil, err
	}
	conv.LastMessageAt = now

	result := &MessageResult{ConversationID: conv.ID, Status: conv.Status}

	// atendimento humano: a IA fica calada
	if conv.Status == domain.StatusHuman {
		return result, nil
	}

	reply, tools := uc.respond(ctx, conv, phone, in.Name, text)

	if tools.Booked != nil {
		result.AppointmentID = &tools.Booked.ID
		if conv.ClientID == nil {
			conv.ClientID = &tools.Booked.ClientID
			if err := uc.repo.SaveConversation(ctx, conv); err != nil {
				log.Printf("[whatsapp] link client to conversation %d: %v", conv.ID, err)
			}
		}
	}
	result.Status = conv.Status
	result.Reply = reply

	if err := uc.repo.AddMessage(ctx, &models.WhatsAppMessage{
		ConversationID: conv.ID,
		Direction:      domain.DirectionOut,
		Body:           reply,
	}); err != nil {
		return nil, err
	}

	if in.Deliver {
		result.Sent = uc.deliver(ctx, inst, shopID, phone, reply)
	}

	return result, nil
}

// respond runs the model and always returns something to say. Model failures
// hand the conversation to a human.
func (uc *HandleMessage) respond(
	ctx context.Context,
	conv *models.WhatsAppConversation,
	phone, name, text string,
) (string, *assistant.BookingTools) {

	handoff := func(ctx context.Context, reason string) error {
		return uc.handoff(ctx, conv, reason)
	}
	tools := assistant.NewBookingTools(uc.booking, conv.BarbershopID, phone, handoff)

	catalog, err := assistant.LoadCatalog(ctx, uc.booking.Repo, conv.BarbershopID)
	if err != nil {
		log.Printf("[whatsapp] load catalog for shop %d: %v", conv.BarbershopID, err)
		uc.fallbackHandoff(ctx, conv, "catalog_unavailable")
		return fallbackReply, tools
	}

	system := catalog.SystemPrompt(uc.now())
	if name != "" {
		system += "\nNome do contato no WhatsApp: " + name + "\n"
	}

	history, err := uc.history(ctx, conv.ID)
	if err != nil {
		log.Printf("[whatsapp] load history of conversation %d: %v", conv.ID, err)
	}

	reply, err := uc.responder.Respond(ctx, assistant.Request{
		System:  system,
		History: history,
		Message: text,
		Tools:   tools,
	})
	if err != nil {
		log.Printf("[whatsapp] assistant failed on conversation %d: %v", conv.ID, err)
		uc.fallbackHandoff(ctx, conv, "assistant_error")
		return fallbackReply, tools
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		if tools.HandedOff {
			return handoffReply, tools
		}
		uc.fallbackHandoff(ctx, conv, "empty_reply")
		return fallbackReply, tools
	}
	return reply, tools
}

// history returns the stored turns before the current message.
func (uc *HandleMessage) history(ctx context.Context, conversationID uint) ([]assistant.Turn, error) {
	msgs, err := uc.repo.RecentMessages(ctx, conversationID, historyLimit+1)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}

	turns := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := assistant.RoleUser
		if m.Direction == domain.DirectionOut {
			role = assistant.RoleModel
		}
		turns = append(turns, assistant.Turn{Role: role, Text: m.Body})
	}
	return turns, nil
}

func (uc *HandleMessage) handoff(ctx context.Context, conv *models.WhatsAppConversation, reason string) error {
	if conv.Status == domain.StatusHuman {
		return nil
	}
	conv.Status = domain.StatusHuman
	if err := uc.repo.SaveConversation(ctx, conv); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: conv.BarbershopID,
		Action:       "conversation_handoff",
		Entity:       "whatsapp_conversation",
		EntityID:     &conv.ID,
		Metadata:     map[string]any{"reason": reason},
	})
	return nil
}

func (uc *HandleMessage) fallbackHandoff(ctx context.Context, conv *models.WhatsAppConversation, reason string) {
	if err := uc.handoff(ctx, conv, reason); err != nil {
		log.Printf("[whatsapp] handoff of conversation %d: %v", conv.ID, err)
	}
}

// deliver sends the reply. A failed send is logged; the message stays stored.
func (uc *HandleMessage) deliver(ctx context.Context, inst *models.WhatsAppInstance, shopID uint, phone, text string) bool {
	if inst == nil {
		found, err := uc.repo.GetInstanceByShop(ctx, shopID)
		if err != nil {
			log.Printf("[whatsapp] no instance for shop %d: %v", shopID, err)
			return false
		}
		inst = found
	}

	if err := uc.gateway.SendText(ctx, inst.InstanceName, phone, text); err != nil {
		log.Printf("[whatsapp] send to %s via %s failed: %v", phone, inst.InstanceName, err)
		return false
	}
	return true
}

func (uc *HandleMessage) resolveShop(ctx context.Context, in MessageInput) (*models.WhatsAppInstance, uint, error) {
	if in.Instance != "" {
		inst, err := uc.repo.GetInstanceByName(ctx, in.Instance)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, httperr.ErrBusiness("instance_not_found")
			}
			return nil, 0, err
		}
		if in.BarbershopID != 0 && in.BarbershopID != inst.BarbershopID {
			return nil, 0, httperr.ErrBusiness("instance_not_found")
		}
		return inst, inst.BarbershopID, nil
	}

	if in.BarbershopID == 0 {
		return nil, 0, httperr.ErrBusiness("barbershop_required")
	}
	return nil, in.BarbershopID, nil
}
