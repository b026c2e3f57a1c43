package whatsapp

import (
	"strings"

	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

const EventMessagesUpsert = "messages.upsert"

// WebhookPayload is the body Evolution posts for every subscribed event.
type WebhookPayload struct {
	Event    string      `json:"event"`
	Instance string      `json:"instance"`
	Data     MessageData `json:"data"`
}

type MessageData struct {
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	PushName string `json:"pushName"`
	Message  struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
}

type Inbound struct {
	Instance   string
	Phone      string
	Name       string
	Text       string
	ExternalID string
}

// ParseInbound extracts a text message sent by a customer. ok is false for
// other events, group chats, our own echoes and non text messages.
func ParseInbound(p WebhookPayload) (Inbound, bool) {
	if !strings.EqualFold(p.Event, EventMessagesUpsert) || p.Data.Key.FromMe {
		return Inbound{}, false
	}
	jid := p.Data.Key.RemoteJID
	if strings.HasSuffix(jid, "@g.us") {
		return Inbound{}, false
	}

	text := p.Data.Message.Conversation
	if text == "" {
		text = p.Data.Message.ExtendedTextMessage.Text
	}
	text = strings.TrimSpace(text)

	phone := validators.NormalizePhone(jid)
	if text == "" || phone == "" {
		return Inbound{}, false
	}

	return Inbound{
		Instance:   p.Instance,
		Phone:      phone,
		Name:       strings.TrimSpace(p.Data.PushName),
		Text:       text,
		ExternalID: p.Data.Key.ID,
	}, true
}
