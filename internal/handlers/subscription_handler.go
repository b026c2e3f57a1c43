package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
	"github.com/BruksfildServices01/barber-manager/internal/usecase/subscription"
)

// ======================================================
// HANDLER
// ======================================================

type SubscriptionHandler struct {
	db         *gorm.DB
	createPlan *subscription.CreatePlan
	updatePlan *subscription.UpdatePlan
	listPlans  *subscription.ListPlans
	subscribe  *subscription.Subscribe
	cancel     *subscription.CancelSubscription
	byClient   *subscription.ListClientSubscriptions
	payout     *subscription.Payout
	apply      *subscription.ApplyPayment
}

// notificationURL is the public address of PaymentWebhook.
func NewSubscriptionHandler(db *gorm.DB, gateway payments.Gateway, a audit.Recorder, notificationURL string) *SubscriptionHandler {
	repo := infraRepo.NewSubscriptionGormRepository(db)

	return &SubscriptionHandler{
		db:         db,
		createPlan: subscription.NewCreatePlan(repo, a),
		updatePlan: subscription.NewUpdatePlan(repo, a),
		listPlans:  subscription.NewListPlans(repo),
		subscribe:  subscription.NewSubscribe(repo, gateway, a, notificationURL),
		cancel:     subscription.NewCancelSubscription(repo, a),
		byClient:   subscription.NewListClientSubscriptions(repo),
		payout:     subscription.NewPayout(repo),
		apply:      subscription.NewApplyPayment(repo, gateway, a),
	}
}

// ======================================================
// REQUESTS
// ======================================================

type PlanRequest struct {
	Name                 string          `json:"name" binding:"required"`
	MonthlyPrice         decimal.Decimal `json:"monthly_price"`
	IncludedServices     int             `json:"included_services"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	ServiceIDs           []uint          `json:"service_ids"`
}

type UpdatePlanRequest struct {
	Name                 *string          `json:"name,omitempty"`
	MonthlyPrice         *decimal.Decimal `json:"monthly_price,omitempty"`
	IncludedServices     *int             `json:"included_services,omitempty"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
	Active               *bool            `json:"active,omitempty"`
	ServiceIDs           *[]uint          `json:"service_ids,omitempty"`
}

type SubscribeRequest struct {
	ClientID    uint `json:"client_id" binding:"required"`
	PlanID      uint `json:"plan_id" binding:"required"`
	PaidInStore bool `json:"paid_in_store"`
}

// ======================================================
// PLANS
// ======================================================

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	plan, err := h.createPlan.Execute(c.Request.Context(), subscription.PlanInput{
		Actor:                middleware.Actor(c),
		Name:                 req.Name,
		MonthlyPrice:         req.MonthlyPrice,
		IncludedServices:     req.IncludedServices,
		CommissionPercentage: req.CommissionPercentage,
		ServiceIDs:           req.ServiceIDs,
	})
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.Created(c, plan)
}

func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	plan, err := h.updatePlan.Execute(c.Request.Context(), subscription.UpdatePlanInput{
		Actor:                middleware.Actor(c),
		PlanID:               id,
		Name:                 req.Name,
		MonthlyPrice:         req.MonthlyPrice,
		IncludedServices:     req.IncludedServices,
		CommissionPercentage: req.CommissionPercentage,
		Active:               req.Active,
		ServiceIDs:           req.ServiceIDs,
	})
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.OK(c, plan)
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	onlyActive := c.Query("active") != "false"

	plans, err := h.listPlans.Execute(c.Request.Context(), middleware.Actor(c).BarbershopID, onlyActive)
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.List(c, plans)
}

// ======================================================
// CLIENT SUBSCRIPTIONS
// ======================================================

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	res, err := h.subscribe.Execute(c.Request.Context(), subscription.SubscribeInput{
		Actor:       middleware.Actor(c),
		ClientID:    req.ClientID,
		PlanID:      req.PlanID,
		PaidInStore: req.PaidInStore,
	})
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.Created(c, res)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.cancel.Execute(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.OK(c, sub)
}

func (h *SubscriptionHandler) ListByClient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	subs, err := h.byClient.Execute(c.Request.Context(), middleware.Actor(c).BarbershopID, id)
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.List(c, subs)
}

// ======================================================
// PAYOUT
// ======================================================

func (h *SubscriptionHandler) Payout(c *gin.Context) {
	actor := middleware.Actor(c)

	tz, ok := shopTimezone(h.db, c, actor.BarbershopID)
	if !ok {
		return
	}
	from, to, ok := parsePeriod(c, tz)
	if !ok {
		return
	}

	report, err := h.payout.Execute(c.Request.Context(), actor, from, to)
	if err != nil {
		mapSubscriptionErrors(c, err)
		return
	}

	httpresp.OK(c, report)
}

// ======================================================
// MERCADO PAGO WEBHOOK
// ======================================================

type paymentNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		// string in current notifications, number in older ones
		ID any `json:"id"`
	} `json:"data"`
}

func (n paymentNotification) paymentID() string {
	switch v := n.Data.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// PaymentWebhook receives Mercado Pago notifications, either as JSON body or
// as the legacy ?topic=payment&id= query. Business failures are answered 200
// so the gateway stops retrying a notification that can never apply.
func (h *SubscriptionHandler) PaymentWebhook(c *gin.Context) {
	var n paymentNotification
	_ = c.ShouldBindJSON(&n)

	kind := n.Type
	if kind == "" {
		kind = c.DefaultQuery("type", c.Query("topic"))
	}
	paymentID := n.paymentID()
	if paymentID == "" {
		paymentID = c.DefaultQuery("data.id", c.Query("id"))
	}

	if kind != "payment" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	out, err := h.apply.Execute(c.Request.Context(), paymentID)
	if err != nil {
		if code := httperr.BusinessCode(err); code != "" {
			log.Printf("[payments] notification %s ignored: %s", paymentID, code)
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": code})
			return
		}
		log.Printf("[payments] notification %s: %v", paymentID, err)
		httperr.Internal(c, "payment_webhook_failed", "Erro ao processar pagamento.")
		return
	}

	httpresp.OK(c, out)
}
