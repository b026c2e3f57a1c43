package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const (
	ToolCheckAvailability = "check_availability"
	ToolCreateBooking     = "create_booking"
	ToolTransferToHuman   = "transfer_to_human"
)

// Tools declares the functions the model may call.
func Tools() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        ToolCheckAvailability,
					Description: "Lista os horários livres de um serviço em uma data. Sem barber_id, consulta todos os barbeiros.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"date":       {Type: genai.TypeString, Description: "Data no formato YYYY-MM-DD"},
							"service_id": {Type: genai.TypeInteger, Description: "ID do serviço"},
							"barber_id":  {Type: genai.TypeInteger, Description: "ID do barbeiro (opcional)"},
						},
						Required: []string{"date", "service_id"},
					},
				},
				{
					Name:        ToolCreateBooking,
					Description: "Cria o agendamento depois que o cliente confirmou serviço, barbeiro, data e horário.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"date":        {Type: genai.TypeString, Description: "Data no formato YYYY-MM-DD"},
							"time":        {Type: genai.TypeString, Description: "Horário no formato HH:MM"},
							"service_id":  {Type: genai.TypeInteger, Description: "ID do serviço"},
							"barber_id":   {Type: genai.TypeInteger, Description: "ID do barbeiro"},
							"client_name": {Type: genai.TypeString, Description: "Nome do cliente"},
						},
						Required: []string{"date", "time", "service_id", "barber_id", "client_name"},
					},
				},
				{
					Name:        ToolTransferToHuman,
					Description: "Transfere a conversa para um atendente humano quando o cliente pedir ou quando não for possível ajudar.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"reason": {Type: genai.TypeString, Description: "Motivo da transferência"},
						},
					},
				},
			},
		},
	}
}

// ======================================================
// ARGS
// ======================================================

func argString(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// argUint accepts the numbers the model sends as float64 and numeric strings.
func argUint(args map[string]any, key string) uint {
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return uint(v)
		}
	case int:
		if v > 0 {
			return uint(v)
		}
	case string:
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			return uint(n)
		}
	}
	return 0
}
