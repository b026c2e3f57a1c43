package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/usecase/command"
)

// ======================================================
// HANDLER
// ======================================================

type CommandHandler struct {
	open           *command.OpenCommand
	forAppointment *command.OpenForAppointment
	addItem        *command.AddItem
	removeItem     *command.RemoveItem
	close          *command.CloseCommand
	get            *command.GetCommand
	list           *command.ListCommands
}

func NewCommandHandler(db *gorm.DB, a audit.Recorder) *CommandHandler {
	repo := infraRepo.NewLedgerGormRepository(db)

	return &CommandHandler{
		open:           command.NewOpenCommand(repo, a),
		forAppointment: command.NewOpenForAppointment(repo, a),
		addItem:        command.NewAddItem(repo, a),
		removeItem:     command.NewRemoveItem(repo, a),
		close:          command.NewCloseCommand(repo, a),
		get:            command.NewGetCommand(repo),
		list:           command.NewListCommands(repo),
	}
}

// ======================================================
// REQUESTS
// ======================================================

type OpenCommandRequest struct {
	ClientID uint   `json:"client_id" binding:"required"`
	BarberID uint   `json:"barber_id"`
	Notes    string `json:"notes"`
}

type AddItemRequest struct {
	ItemType  string `json:"item_type" binding:"required"`
	ServiceID uint   `json:"service_id"`
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	BarberID  uint   `json:"barber_id"`
}

type CloseCommandRequest struct {
	PaymentMethod string           `json:"payment_method" binding:"required"`
	Discount      *decimal.Decimal `json:"discount"`
}

// ======================================================
// OPEN
// ======================================================

func (h *CommandHandler) Open(c *gin.Context) {
	var req OpenCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	cmd, err := h.open.Execute(c.Request.Context(), command.OpenCommandInput{
		Actor:    middleware.Actor(c),
		ClientID: req.ClientID,
		BarberID: req.BarberID,
		Notes:    req.Notes,
	})
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.Created(c, cmd)
}

// OpenForAppointment returns the open command of the appointment, creating
// it with the booked service on first use.
func (h *CommandHandler) OpenForAppointment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	cmd, err := h.forAppointment.Execute(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.OK(c, cmd)
}

// ======================================================
// ITEMS
// ======================================================

func (h *CommandHandler) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cmd, err := h.addItem.Execute(c.Request.Context(), command.AddItemInput{
		Actor:     middleware.Actor(c),
		CommandID: id,
		ItemType:  req.ItemType,
		ServiceID: req.ServiceID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		BarberID:  req.BarberID,
	})
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.OK(c, cmd)
}

func (h *CommandHandler) RemoveItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}

	cmd, err := h.removeItem.Execute(c.Request.Context(), middleware.Actor(c), id, itemID)
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.OK(c, cmd)
}

// ======================================================
// CLOSE
// ======================================================

// Close accepts an Idempotency-Key header so a retried request returns the
// sale written by the first one.
func (h *CommandHandler) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CloseCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	res, err := h.close.Execute(c.Request.Context(), command.CloseCommandInput{
		Actor:          middleware.Actor(c),
		CommandID:      id,
		PaymentMethod:  req.PaymentMethod,
		Discount:       decimalOrZero(req.Discount),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// ======================================================
// QUERIES
// ======================================================

func (h *CommandHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	cmd, err := h.get.Execute(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.OK(c, cmd)
}

// List defaults to open commands. ?date= keeps the commands opened that day.
func (h *CommandHandler) List(c *gin.Context) {
	f := ledger.CommandFilter{Status: c.DefaultQuery("status", ledger.CommandOpen)}
	if f.Status != ledger.CommandOpen && f.Status != ledger.CommandClosed {
		httperr.BadRequest(c, "invalid_status", "Status inválido.")
		return
	}

	if s := c.Query("date"); s != "" {
		day, err := parseDate(s)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		end := day.Add(24 * time.Hour)
		f.From, f.To = &day, &end
	}

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}
	if barberID != nil {
		f.BarberID = *barberID
	}

	cmds, err := h.list.Execute(c.Request.Context(), middleware.Actor(c), f)
	if err != nil {
		mapCommandErrors(c, err)
		return
	}

	httpresp.List(c, cmds)
}
