package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/recovery"
	ucconversation "github.com/BruksfildServices01/barber-manager/internal/usecase/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

// ======================================================
// HANDLER
// ======================================================

type WhatsAppHandler struct {
	repo       *infraRepo.ConversationGormRepository
	gateway    whatsapp.Gateway
	webhookURL func(instance string) string
	audit      audit.Recorder

	handle   *ucconversation.HandleMessage
	recovery *recovery.Service
	setState *ucconversation.SetStatus
	list     *ucconversation.ListConversations
	messages *ucconversation.ListMessages
}

func NewWhatsAppHandler(
	db *gorm.DB,
	handle *ucconversation.HandleMessage,
	rec *recovery.Service,
	gateway whatsapp.Gateway,
	webhookURL func(instance string) string,
	a audit.Recorder,
) *WhatsAppHandler {
	repo := infraRepo.NewConversationGormRepository(db)

	return &WhatsAppHandler{
		repo:       repo,
		gateway:    gateway,
		webhookURL: webhookURL,
		audit:      a,
		handle:     handle,
		recovery:   rec,
		setState:   ucconversation.NewSetStatus(repo, a),
		list:       ucconversation.NewListConversations(repo),
		messages:   ucconversation.NewListMessages(repo),
	}
}

// ======================================================
// WEBHOOK (Evolution)
// ======================================================

// POST /webhooks/whatsapp/:instance
// Evolution retries anything that is not 2xx, so events we do not handle and
// messages for unknown instances are acknowledged and dropped.
func (h *WhatsAppHandler) Webhook(c *gin.Context) {
	var payload whatsapp.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httperr.BadRequest(c, "invalid_request", "Payload inválido.")
		return
	}

	in, ok := whatsapp.ParseInbound(payload)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	res, err := h.handle.Execute(c.Request.Context(), ucconversation.MessageInput{
		Instance:   c.Param("instance"),
		Phone:      in.Phone,
		Name:       in.Name,
		Text:       in.Text,
		ExternalID: in.ExternalID,
		Deliver:    true,
	})
	if err != nil {
		if code := httperr.BusinessCode(err); code != "" {
			log.Printf("[whatsapp] webhook %s ignored: %s", c.Param("instance"), code)
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": code})
			return
		}
		mapWhatsAppErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ======================================================
// INSTANCE
// ======================================================

type InstanceRequest struct {
	InstanceName string `json:"instance_name" binding:"required"`
}

// GET /api/me/whatsapp
func (h *WhatsAppHandler) GetInstance(c *gin.Context) {
	inst, err := h.repo.GetInstanceByShop(c.Request.Context(), middleware.Actor(c).BarbershopID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mapWhatsAppErrors(c, httperr.ErrBusiness("instance_not_found"))
		return
	}
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}

	httpresp.OK(c, inst)
}

// PUT /api/me/whatsapp
// Links the shop to an Evolution instance and points its webhook here. A
// failure on the Evolution side keeps the link; recovery can fix it later.
func (h *WhatsAppHandler) SaveInstance(c *gin.Context) {
	actor := middleware.Actor(c)
	ctx := c.Request.Context()

	var req InstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	name := strings.TrimSpace(req.InstanceName)
	if name == "" || strings.ContainsAny(name, "/ ") {
		httperr.BadRequest(c, "invalid_instance_name", "Nome da instância inválido.")
		return
	}

	if other, err := h.repo.GetInstanceByName(ctx, name); err == nil && other.BarbershopID != actor.BarbershopID {
		httperr.Conflict(c, "instance_in_use", "Instância já vinculada a outra barbearia.")
		return
	}

	inst, err := h.repo.GetInstanceByShop(ctx, actor.BarbershopID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		inst = &models.WhatsAppInstance{BarbershopID: actor.BarbershopID}
	} else if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}

	inst.InstanceName = name
	inst.WebhookURL = h.webhookURL(name)

	if err := h.gateway.SetWebhook(ctx, name, inst.WebhookURL); err != nil {
		log.Printf("[whatsapp] set webhook on %s: %v", name, err)
		inst.Status = "webhook_pending"
	} else {
		inst.Status = "configured"
	}
	now := time.Now()
	inst.LastCheckedAt = &now

	if err := h.repo.SaveInstance(ctx, inst); err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Conflict(c, "instance_in_use", "Instância já vinculada a outra barbearia.")
			return
		}
		mapWhatsAppErrors(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "whatsapp_instance_saved",
		Entity:       "whatsapp_instance",
		EntityID:     &inst.ID,
		Metadata:     map[string]any{"instance": name, "status": inst.Status},
	})

	httpresp.OK(c, inst)
}

// ======================================================
// CONVERSATIONS
// ======================================================

// GET /api/whatsapp/conversations?status=ai|human
func (h *WhatsAppHandler) ListConversations(c *gin.Context) {
	convs, err := h.list.Execute(c.Request.Context(), middleware.Actor(c).BarbershopID, c.Query("status"))
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	httpresp.List(c, convs)
}

// GET /api/whatsapp/conversations/:id/messages
func (h *WhatsAppHandler) ListMessages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	msgs, err := h.messages.Execute(c.Request.Context(), middleware.Actor(c).BarbershopID, id)
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	httpresp.List(c, msgs)
}

type ConversationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/whatsapp/conversations/:id/status
// "human" assume o atendimento, "ai" devolve para o assistente.
func (h *WhatsAppHandler) SetStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ConversationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	conv, err := h.setState.Execute(c.Request.Context(), middleware.Actor(c), id, req.Status)
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	httpresp.OK(c, conv)
}

// ======================================================
// RECOVERY
// ======================================================

type RecoveryRequest struct {
	Action string `json:"action" binding:"required"`
}

// POST /api/whatsapp/recovery
func (h *WhatsAppHandler) Recover(c *gin.Context) {
	var req RecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	report, err := h.recovery.Run(c.Request.Context(), middleware.Actor(c).BarbershopID, req.Action)
	if err != nil {
		mapWhatsAppErrors(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
