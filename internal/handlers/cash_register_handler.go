package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/usecase/cashregister"
)

type CashRegisterHandler struct {
	open    *cashregister.OpenRegister
	close   *cashregister.CloseRegister
	queries *cashregister.Queries
}

func NewCashRegisterHandler(db *gorm.DB, a audit.Recorder) *CashRegisterHandler {
	repo := infraRepo.NewLedgerGormRepository(db)

	return &CashRegisterHandler{
		open:    cashregister.NewOpenRegister(repo, a),
		close:   cashregister.NewCloseRegister(repo, a),
		queries: cashregister.NewQueries(repo),
	}
}

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Notes          string          `json:"notes"`
}

type CloseRegisterRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash"`
	Notes       string          `json:"notes"`
}

func (h *CashRegisterHandler) Open(c *gin.Context) {
	var req OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	reg, err := h.open.Execute(c.Request.Context(), middleware.Actor(c), req.OpeningBalance, req.Notes)
	if err != nil {
		mapCashRegisterErrors(c, err)
		return
	}

	httpresp.Created(c, reg)
}

// Current answers 404 while no session is open.
func (h *CashRegisterHandler) Current(c *gin.Context) {
	sum, err := h.queries.Current(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		mapCashRegisterErrors(c, err)
		return
	}
	if sum == nil {
		httperr.NotFound(c, "no_open_register", "Nenhum caixa aberto.")
		return
	}

	httpresp.OK(c, sum)
}

func (h *CashRegisterHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sum, err := h.queries.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		mapCashRegisterErrors(c, err)
		return
	}

	httpresp.OK(c, sum)
}

func (h *CashRegisterHandler) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	reg, err := h.close.Execute(c.Request.Context(), middleware.Actor(c), id, req.CountedCash, req.Notes)
	if err != nil {
		mapCashRegisterErrors(c, err)
		return
	}

	httpresp.OK(c, reg)
}

func (h *CashRegisterHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 || limit > 200 {
		limit = 30
	}

	regs, err := h.queries.List(c.Request.Context(), middleware.Actor(c), limit)
	if err != nil {
		mapCashRegisterErrors(c, err)
		return
	}

	httpresp.List(c, regs)
}
