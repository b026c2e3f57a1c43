package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxToolRounds bounds the call/response loop of a single reply.
const maxToolRounds = 5

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

// New returns Disabled when apiKey is empty or the client cannot start.
func New(ctx context.Context, apiKey, model string) Responder {
	if apiKey == "" {
		return Disabled{}
	}
	g, err := NewGemini(ctx, apiKey, model)
	if err != nil {
		log.Printf("[assistant] gemini disabled: %v", err)
		return Disabled{}
	}
	return g
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Respond(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	model.Tools = Tools()
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
	}
	model.SetTemperature(0.4)

	session := model.StartChat()
	for _, t := range req.History {
		session.History = append(session.History, &genai.Content{
			Role:  t.Role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		if len(resp.Candidates) == 0 {
			return "", fmt.Errorf("gemini: empty response")
		}
		calls := resp.Candidates[0].FunctionCalls()
		if len(calls) == 0 {
			break
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			log.Printf("[assistant] tool %s", call.Name)
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: req.Tools.Execute(ctx, ToolCall{Name: call.Name, Args: call.Args}),
			})
		}

		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}

	return textOf(resp), nil
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
