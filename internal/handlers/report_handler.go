package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	db      *gorm.DB
	reports *report.Service
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{
		db:      db,
		reports: report.NewService(infraRepo.NewLedgerGormRepository(db)),
	}
}

func mapReportErrors(c *gin.Context, err error) {
	writeError(c, err, "report_failed", "Erro ao gerar relatório.")
}

// GET /api/reports/commissions?from=&to=
func (h *ReportHandler) Commissions(c *gin.Context) {
	actor := middleware.Actor(c)

	tz, ok := shopTimezone(h.db, c, actor.BarbershopID)
	if !ok {
		return
	}
	from, to, ok := parsePeriod(c, tz)
	if !ok {
		return
	}

	out, err := h.reports.Commissions(c.Request.Context(), actor, from, to)
	if err != nil {
		mapReportErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// GET /api/reports/sales?from=&to=
func (h *ReportHandler) Sales(c *gin.Context) {
	actor := middleware.Actor(c)

	tz, ok := shopTimezone(h.db, c, actor.BarbershopID)
	if !ok {
		return
	}
	from, to, ok := parsePeriod(c, tz)
	if !ok {
		return
	}

	out, err := h.reports.Sales(c.Request.Context(), actor, from, to)
	if err != nil {
		mapReportErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// GET /api/reports/export?from=&to=
// Planilha com comissões e vendas do período.
func (h *ReportHandler) Export(c *gin.Context) {
	actor := middleware.Actor(c)
	ctx := c.Request.Context()

	tz, ok := shopTimezone(h.db, c, actor.BarbershopID)
	if !ok {
		return
	}
	from, to, ok := parsePeriod(c, tz)
	if !ok {
		return
	}

	comm, err := h.reports.Commissions(ctx, actor, from, to)
	if err != nil {
		mapReportErrors(c, err)
		return
	}
	sales, err := h.reports.Sales(ctx, actor, from, to)
	if err != nil {
		mapReportErrors(c, err)
		return
	}

	data, err := report.Workbook(comm, sales)
	if err != nil {
		mapReportErrors(c, err)
		return
	}

	name := fmt.Sprintf("relatorio_%s_%s.xlsx",
		from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
