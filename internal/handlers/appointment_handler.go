package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create       *appointment.CreateAppointment
	byDate       *appointment.ListAppointmentsByDate
	byMonth      *appointment.ListAppointmentsByMonth
	confirm      *appointment.ChangeStatus
	complete     *appointment.ChangeStatus
	cancel       *appointment.ChangeStatus
	noShow       *appointment.ChangeStatus
	remove       *appointment.DeleteAppointment
	availability *appointment.GetAvailability
	grid         *appointment.GetDayGrid
}

func NewAppointmentHandler(db *gorm.DB, a audit.Recorder, c cache.Cache) *AppointmentHandler {
	repo := infraRepo.NewAppointmentGormRepository(db)

	return &AppointmentHandler{
		create:       appointment.NewCreateAppointment(repo, a, c),
		byDate:       appointment.NewListAppointmentsByDate(repo),
		byMonth:      appointment.NewListAppointmentsByMonth(repo),
		confirm:      appointment.NewConfirmAppointment(repo, a, c),
		complete:     appointment.NewCompleteAppointment(repo, a, c),
		cancel:       appointment.NewCancelAppointment(repo, a, c),
		noShow:       appointment.NewMarkNoShow(repo, a, c),
		remove:       appointment.NewDeleteAppointment(repo, a, c),
		availability: appointment.NewGetAvailability(repo),
		grid:         appointment.NewGetDayGrid(repo, c),
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	// Defaults to the authenticated barber.
	BarberID    uint   `json:"barber_id"`
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone" binding:"required"`
	ClientEmail string `json:"client_email"`
	ServiceID   uint   `json:"service_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Notes       string `json:"notes"`
}

// barberScope resolves ?barber_id= against the actor. Barbers only ever see
// their own agenda.
func barberScope(c *gin.Context) (uint, bool) {
	actor := middleware.Actor(c)

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return 0, false
	}
	if barberID == nil {
		return actor.UserID, true
	}
	if !actor.CanActFor(*barberID) {
		httperr.Forbidden(c, "forbidden", "Você não tem permissão para esta ação.")
		return 0, false
	}
	return *barberID, true
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	actor := middleware.Actor(c)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	barberID := req.BarberID
	if barberID == 0 {
		barberID = actor.UserID
	}

	ap, err := h.create.Execute(c.Request.Context(), appointment.CreateAppointmentInput{
		BarbershopID: actor.BarbershopID,
		BarberID:     barberID,
		Actor:        &actor,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		ClientEmail:  req.ClientEmail,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		Source:       appointment.SourceManual,
	})
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	actor := middleware.Actor(c)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}
	date, err := parseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	barberID, ok := barberScope(c)
	if !ok {
		return
	}

	aps, err := h.byDate.Execute(c.Request.Context(), barberID, actor.BarbershopID, date)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	httpresp.List(c, aps)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	actor := middleware.Actor(c)

	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	barberID, ok := barberScope(c)
	if !ok {
		return
	}

	aps, err := h.byMonth.Execute(c.Request.Context(), barberID, actor.BarbershopID, year, month)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": aps,
	})
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context)  { h.changeStatus(c, h.confirm) }
func (h *AppointmentHandler) Complete(c *gin.Context) { h.changeStatus(c, h.complete) }
func (h *AppointmentHandler) Cancel(c *gin.Context)   { h.changeStatus(c, h.cancel) }
func (h *AppointmentHandler) NoShow(c *gin.Context)   { h.changeStatus(c, h.noShow) }

func (h *AppointmentHandler) changeStatus(c *gin.Context, uc *appointment.ChangeStatus) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ap, err := uc.Execute(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.remove.Execute(c.Request.Context(), middleware.Actor(c), id); err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ======================================================
// AVAILABILITY / GRID
// ======================================================

func (h *AppointmentHandler) Availability(c *gin.Context) {
	actor := middleware.Actor(c)

	date, err := parseDate(c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}
	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Serviço inválido.")
		return
	}

	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}
	if barberID == nil {
		barberID = &actor.UserID
	}

	slots, err := h.availability.Execute(c.Request.Context(), domain.AvailabilityInput{
		BarbershopID: actor.BarbershopID,
		BarberID:     *barberID,
		ServiceID:    uint(serviceID),
		Date:         date,
	})
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format(dateLayout),
		"slots": slots,
	})
}

func (h *AppointmentHandler) DayGrid(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	grid, err := h.grid.Execute(c.Request.Context(), middleware.Actor(c).BarbershopID, date)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	httpresp.OK(c, grid)
}
