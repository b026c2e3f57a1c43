package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the self-service booking page of a barbershop.
type PublicHandler struct {
	db           *gorm.DB
	repo         domain.Repository
	availability *appointment.GetAvailability
	create       *appointment.CreateAppointment
}

func NewPublicHandler(db *gorm.DB, a audit.Recorder, c cache.Cache) *PublicHandler {
	repo := infraRepo.NewAppointmentGormRepository(db)

	return &PublicHandler{
		db:           db,
		repo:         repo,
		availability: appointment.NewGetAvailability(repo),
		create:       appointment.NewCreateAppointment(repo, a, c),
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateAppointmentRequest struct {
	BarberID    uint   `json:"barber_id" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone" binding:"required"`
	ClientEmail string `json:"client_email"`
	ServiceID   uint   `json:"service_id" binding:"required"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Time        string `json:"time" binding:"required"` // HH:mm
	Notes       string `json:"notes"`
}

type publicBarber struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (h *PublicHandler) shopBySlug(c *gin.Context) (*models.Barbershop, bool) {
	var shop models.Barbershop
	err := h.db.WithContext(c.Request.Context()).
		Where("slug = ? AND active = ?", c.Param("slug"), true).
		First(&shop).Error
	if err != nil {
		httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
		return nil, false
	}
	return &shop, true
}

////////////////////////////////////////////////////////
// CATALOG
////////////////////////////////////////////////////////

func (h *PublicHandler) Catalog(c *gin.Context) {
	shop, ok := h.shopBySlug(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	services, err := h.repo.ListServices(ctx, shop.ID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	category := strings.TrimSpace(strings.ToLower(c.Query("category")))
	if category != "" {
		filtered := services[:0]
		for _, s := range services {
			if strings.ToLower(s.Category) == category {
				filtered = append(filtered, s)
			}
		}
		services = filtered
	}

	barbers, err := h.repo.ListBarbers(ctx, shop.ID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_barbers", "Erro ao listar barbeiros.")
		return
	}
	out := make([]publicBarber, 0, len(barbers))
	for _, b := range barbers {
		out = append(out, publicBarber{ID: b.ID, Name: b.Name, AvatarURL: b.AvatarURL})
	}

	hours, err := h.repo.ListBusinessHours(ctx, shop.ID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_hours", "Erro ao carregar horários.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barbershop":     shop,
		"services":       services,
		"barbers":        out,
		"business_hours": hours,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" || c.Query("service_id") == "" || c.Query("barber_id") == "" {
		httperr.BadRequest(c, "missing_params", "Data, serviço e barbeiro obrigatórios.")
		return
	}

	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Serviço inválido.")
		return
	}
	barberID, err := strconv.ParseUint(c.Query("barber_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_barber_id", "Barbeiro inválido.")
		return
	}
	date, err := parseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	shop, ok := h.shopBySlug(c)
	if !ok {
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), domain.AvailabilityInput{
		BarbershopID: shop.ID,
		BarberID:     uint(barberID),
		ServiceID:    uint(serviceID),
		Date:         date,
	})
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

////////////////////////////////////////////////////////
// CREATE APPOINTMENT
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	shop, ok := h.shopBySlug(c)
	if !ok {
		return
	}

	var req PublicCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), appointment.CreateAppointmentInput{
		BarbershopID: shop.ID,
		BarberID:     req.BarberID,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		ClientEmail:  req.ClientEmail,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		Source:       appointment.SourcePublic,
	})
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}
