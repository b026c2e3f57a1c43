package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/analytics"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/recovery"
	"github.com/BruksfildServices01/barber-manager/internal/seed"
	ucconversation "github.com/BruksfildServices01/barber-manager/internal/usecase/conversation"
)

// FunctionsHandler serves the /functions/v1 endpoints. They keep the request
// and response shapes the dashboard and integrations already send.
type FunctionsHandler struct {
	analytics *analytics.Service
	seed      *seed.Generator
	handle    *ucconversation.HandleMessage
	recovery  *recovery.Service
}

// advisor may be nil.
func NewFunctionsHandler(
	db *gorm.DB,
	advisor analytics.Advisor,
	handle *ucconversation.HandleMessage,
	rec *recovery.Service,
	a audit.Recorder,
) *FunctionsHandler {
	return &FunctionsHandler{
		analytics: analytics.NewService(analytics.NewGormSource(db), advisor),
		seed:      seed.NewGenerator(db, a),
		handle:    handle,
		recovery:  rec,
	}
}

// sameShop rejects a body that names another barbershop than the token.
func sameShop(c *gin.Context, requested uint) (uint, bool) {
	actor := middleware.Actor(c)
	if requested != 0 && requested != actor.BarbershopID {
		httperr.Forbidden(c, "forbidden", "Você não tem permissão para esta ação.")
		return 0, false
	}
	return actor.BarbershopID, true
}

// ======================================================
// ai-analytics
// ======================================================

func (h *FunctionsHandler) AIAnalytics(c *gin.Context) {
	var req analytics.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	shopID, ok := sameShop(c, req.BarbershopID)
	if !ok {
		return
	}
	req.BarbershopID = shopID

	res, err := h.analytics.Analyze(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "analytics_failed", "Erro ao gerar análise.")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ======================================================
// historical-data-generator
// ======================================================

type HistoricalDataRequest struct {
	Config seed.Config `json:"config"`
}

func (h *FunctionsHandler) HistoricalData(c *gin.Context) {
	var req HistoricalDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	report, err := h.seed.Run(c.Request.Context(), middleware.Actor(c), req.Config)
	if err != nil {
		writeError(c, err, "seed_failed", "Erro ao gerar dados.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ======================================================
// whatsapp-ai-assistant
// ======================================================

type AssistantRequest struct {
	Message      string `json:"message"`
	Phone        string `json:"phone"`
	BarbershopID uint   `json:"barbershop_id"`
}

// WhatsAppAssistant answers one message and returns the reply to the caller,
// which relays it.
func (h *FunctionsHandler) WhatsAppAssistant(c *gin.Context) {
	var req AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	res, err := h.handle.Execute(c.Request.Context(), ucconversation.MessageInput{
		BarbershopID: req.BarbershopID,
		Phone:        req.Phone,
		Text:         req.Message,
	})
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"response":        res.Reply,
		"conversation_id": res.ConversationID,
		"status":          res.Status,
		"appointment_id":  res.AppointmentID,
	})
}

// ======================================================
// whatsapp-system-recovery / whatsapp-verify-and-fix
// ======================================================

type SystemRecoveryRequest struct {
	Action       string `json:"action" binding:"required"`
	BarbershopID uint   `json:"barbershopId"`
}

func (h *FunctionsHandler) SystemRecovery(c *gin.Context) {
	var req SystemRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	shopID, ok := sameShop(c, req.BarbershopID)
	if !ok {
		return
	}

	report, err := h.recovery.Run(c.Request.Context(), shopID, req.Action)
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *FunctionsHandler) VerifyAndFix(c *gin.Context) {
	report, err := h.recovery.Run(c.Request.Context(), middleware.Actor(c).BarbershopID, recovery.ActionVerifyAndFix)
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
