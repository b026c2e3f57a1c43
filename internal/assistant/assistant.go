// Package assistant answers WhatsApp customers with a Gemini model that can
// look up free times, book appointments and hand the chat to a human.
package assistant

import (
	"context"
	"errors"
)

var ErrDisabled = errors.New("assistant: model not configured")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Turn struct {
	Role string
	Text string
}

type ToolCall struct {
	Name string
	Args map[string]any
}

// Executor runs one tool call and returns the payload handed back to the
// model.
type Executor interface {
	Execute(ctx context.Context, call ToolCall) map[string]any
}

type Request struct {
	System  string
	History []Turn
	Message string
	Tools   Executor
}

// Responder produces the reply for one customer message, running tool calls
// through req.Tools as the model asks for them.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Respond(context.Context, Request) (string, error) {
	return "", ErrDisabled
}
