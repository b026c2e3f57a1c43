package whatsapp

import (
	"encoding/json"
	"testing"
)

func payload(t *testing.T, raw string) WebhookPayload {
	t.Helper()
	var p WebhookPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseInbound(t *testing.T) {
	p := payload(t, `{
		"event": "messages.upsert",
		"instance": "navalha",
		"data": {
			"key": {"remoteJid": "5511988887777@s.whatsapp.net", "fromMe": false, "id": "ABC"},
			"pushName": "Carlos",
			"message": {"conversation": "  quero cortar amanhã  "}
		}
	}`)

	in, ok := ParseInbound(p)
	if !ok {
		t.Fatalf("expected message to be accepted")
	}
	if in.Phone != "5511988887777" || in.Text != "quero cortar amanhã" || in.Name != "Carlos" || in.ExternalID != "ABC" {
		t.Fatalf("unexpected inbound %+v", in)
	}

	ext := payload(t, `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511988887777@s.whatsapp.net"},"message":{"extendedTextMessage":{"text":"oi"}}}}`)
	if in, ok := ParseInbound(ext); !ok || in.Text != "oi" {
		t.Fatalf("expected extended text, got %+v", in)
	}
}

func TestParseInboundIgnores(t *testing.T) {
	cases := map[string]string{
		"own echo":    `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511988887777@s.whatsapp.net","fromMe":true},"message":{"conversation":"oi"}}}`,
		"group":       `{"event":"messages.upsert","data":{"key":{"remoteJid":"120363@g.us"},"message":{"conversation":"oi"}}}`,
		"other event": `{"event":"connection.update","data":{}}`,
		"no text":     `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511988887777@s.whatsapp.net"},"message":{}}}`,
	}
	for name, raw := range cases {
		if _, ok := ParseInbound(payload(t, raw)); ok {
			t.Fatalf("%s: expected message to be ignored", name)
		}
	}
}
