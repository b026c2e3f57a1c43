package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiAdvisor{client: client, model: model}, nil
}

func (g *GeminiAdvisor) Advise(ctx context.Context, r *Result, s ScheduleInsights) ([]string, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	top := r.Churn
	if len(top) > 10 {
		top = top[:10]
	}
	data, err := json.Marshal(map[string]any{
		"churn":    top,
		"revenue":  r.Revenue,
		"schedule": s,
	})
	if err != nil {
		return nil, err
	}

	prompt := "Você é consultor de uma barbearia. Com base nos dados abaixo, escreva até 5 " +
		"recomendações curtas em português para reduzir a perda de clientes e aumentar o faturamento.\n" +
		string(data)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty response")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			raw.WriteString(string(t))
		}
	}

	var out []string
	if err := json.Unmarshal([]byte(raw.String()), &out); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	return out, nil
}
