package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
)

type errorInfo struct {
	status  int
	message string
}

// Business codes shared by every area. A code missing here falls back to 500.
var businessErrors = map[string]errorInfo{
	"forbidden":            {http.StatusForbidden, "Você não tem permissão para esta ação."},
	"barbershop_not_found": {http.StatusNotFound, "Barbearia não encontrada."},
	"barber_not_found":     {http.StatusNotFound, "Barbeiro não encontrado."},
	"client_not_found":     {http.StatusNotFound, "Cliente não encontrado."},
	"service_not_found":    {http.StatusNotFound, "Serviço não encontrado."},
	"product_not_found":    {http.StatusNotFound, "Produto não encontrado."},
	"invalid_period":       {http.StatusBadRequest, "Período inválido."},
	"invalid_role":         {http.StatusBadRequest, "Perfil inválido."},
	"invalid_phone":        {http.StatusBadRequest, "Telefone inválido."},
	"invalid_price":        {http.StatusBadRequest, "Preço inválido."},

	// agenda
	"appointment_not_found":   {http.StatusNotFound, "Agendamento não encontrado."},
	"client_required":         {http.StatusBadRequest, "Nome e telefone do cliente são obrigatórios."},
	"invalid_date_or_time":    {http.StatusBadRequest, "Data ou hora inválida."},
	"invalid_month":           {http.StatusBadRequest, "Mês inválido."},
	"outside_business_hours":  {http.StatusBadRequest, "Fora do horário de funcionamento."},
	"time_conflict":           {http.StatusConflict, "Conflito de horário."},
	"too_soon":                {http.StatusBadRequest, "Horário muito próximo. Escolha outro horário."},
	"appointment_not_started": {http.StatusBadRequest, "O atendimento ainda não começou."},
	"invalid_state":           {http.StatusConflict, "O agendamento não permite esta ação."},
	"invalid_status":          {http.StatusBadRequest, "Status inválido."},

	// comandas
	"appointment_cancelled":   {http.StatusConflict, "Agendamento cancelado."},
	"command_closed":          {http.StatusConflict, "Comanda já fechada."},
	"command_not_found":       {http.StatusNotFound, "Comanda não encontrada."},
	"empty_command":           {http.StatusBadRequest, "Comanda sem itens."},
	"idempotency_key_reused":  {http.StatusConflict, "Chave de idempotência já usada em outra comanda."},
	"invalid_idempotency_key": {http.StatusBadRequest, "Chave de idempotência inválida."},
	"invalid_item_type":       {http.StatusBadRequest, "Tipo de item inválido."},
	"item_not_found":          {http.StatusNotFound, "Item não encontrado."},
	"discount_exceeds_total":  {http.StatusBadRequest, "Desconto maior que o total."},
	"invalid_commission_rate": {http.StatusBadRequest, "Comissão inválida."},
	"invalid_discount":        {http.StatusBadRequest, "Desconto inválido."},
	"invalid_payment_method":  {http.StatusBadRequest, "Forma de pagamento inválida."},
	"invalid_quantity":        {http.StatusBadRequest, "Quantidade inválida."},

	// caixa
	"invalid_amount":        {http.StatusBadRequest, "Valor inválido."},
	"register_already_open": {http.StatusConflict, "Já existe um caixa aberto."},
	"register_closed":       {http.StatusConflict, "Caixa já fechado."},
	"register_not_found":    {http.StatusNotFound, "Caixa não encontrado."},

	// assinaturas
	"invalid_included_services":   {http.StatusBadRequest, "Quantidade de serviços inválida."},
	"invalid_payment_id":          {http.StatusBadRequest, "Pagamento inválido."},
	"invalid_plan_name":           {http.StatusBadRequest, "Nome do plano obrigatório."},
	"payments_unavailable":        {http.StatusServiceUnavailable, "Pagamentos indisponíveis no momento."},
	"plan_not_found":              {http.StatusNotFound, "Plano não encontrado."},
	"plan_services_required":      {http.StatusBadRequest, "Informe os serviços do plano."},
	"subscription_already_active": {http.StatusConflict, "Cliente já possui assinatura ativa."},
	"subscription_cancelled":      {http.StatusConflict, "Assinatura cancelada."},
	"subscription_not_found":      {http.StatusNotFound, "Assinatura não encontrada."},

	// whatsapp
	"barbershop_required":    {http.StatusBadRequest, "Barbearia obrigatória."},
	"conversation_not_found": {http.StatusNotFound, "Conversa não encontrada."},
	"instance_not_found":     {http.StatusNotFound, "Instância do WhatsApp não configurada."},
	"invalid_action":         {http.StatusBadRequest, "Ação inválida."},
	"message_required":       {http.StatusBadRequest, "Mensagem obrigatória."},

	// dados históricos
	"catalog_empty":       {http.StatusConflict, "Cadastre serviços e barbeiros antes de gerar dados."},
	"invalid_seed_config": {http.StatusBadRequest, "Configuração inválida."},

	// avaliações
	"already_reviewed": {http.StatusConflict, "Este atendimento já foi avaliado."},
	"comment_too_long": {http.StatusBadRequest, "Comentário muito longo."},
	"invalid_nps":      {http.StatusBadRequest, "Nota de 0 a 10 obrigatória."},
	"invalid_rating":   {http.StatusBadRequest, "Avaliação deve ser de 1 a 5 estrelas."},
}

// writeError answers a use case error: known business codes keep their
// status, anything else is logged and reported as fallback.
func writeError(c *gin.Context, err error, fallback, message string) {
	code := httperr.BusinessCode(err)
	if info, ok := businessErrors[code]; ok {
		httperr.Write(c, info.status, code, info.message)
		return
	}

	log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
	httperr.Internal(c, fallback, message)
}

func mapAppointmentErrors(c *gin.Context, err error) {
	writeError(c, err, "appointment_failed", "Erro ao processar agendamento.")
}

func mapCommandErrors(c *gin.Context, err error) {
	writeError(c, err, "command_failed", "Erro ao processar comanda.")
}

func mapCashRegisterErrors(c *gin.Context, err error) {
	writeError(c, err, "cash_register_failed", "Erro ao processar caixa.")
}

func mapSubscriptionErrors(c *gin.Context, err error) {
	writeError(c, err, "subscription_failed", "Erro ao processar assinatura.")
}

func mapWhatsAppErrors(c *gin.Context, err error) {
	writeError(c, err, "whatsapp_failed", "Erro ao processar mensagem.")
}

func mapReviewErrors(c *gin.Context, err error) {
	writeError(c, err, "review_failed", "Erro ao processar avaliação.")
}
