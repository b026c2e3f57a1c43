package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

type ClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// ======================================================
// LIST CLIENTS
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	barbershopID := middleware.Actor(c).BarbershopID

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", barbershopID)

	if query != "" {
		like := "%" + query + "%"
		phone := validators.NormalizePhone(query)
		if phone == "" {
			phone = query
		}
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, "%"+phone+"%", like,
		)
	}

	var clients []models.Client
	if err := q.
		Order("name ASC").
		Limit(limit).
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}

	httpresp.List(c, clients)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var client models.Client
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, middleware.Actor(c).BarbershopID).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "client_not_found", "Cliente não encontrado.")
		return
	}
	if err != nil {
		httperr.Internal(c, "failed_to_get_client", "Erro ao buscar cliente.")
		return
	}

	httpresp.OK(c, client)
}

// Create registers a walk-in client. The phone is unique per barbershop, so
// an existing client with the same number is returned instead.
func (h *ClientHandler) Create(c *gin.Context) {
	barbershopID := middleware.Actor(c).BarbershopID

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	phone := validators.NormalizePhone(req.Phone)
	if !validators.IsPhoneValid(phone) {
		httperr.BadRequest(c, "invalid_phone", "Telefone inválido.")
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Client
	err := db.Where("barbershop_id = ? AND phone = ?", barbershopID, phone).First(&existing).Error
	if err == nil {
		httpresp.OK(c, existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.Internal(c, "failed_to_create_client", "Erro ao cadastrar cliente.")
		return
	}

	client := models.Client{
		BarbershopID: barbershopID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Notes:        req.Notes,
	}
	if err := db.Create(&client).Error; err != nil {
		httperr.Internal(c, "failed_to_create_client", "Erro ao cadastrar cliente.")
		return
	}

	httpresp.Created(c, client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	phone := validators.NormalizePhone(req.Phone)
	if !validators.IsPhoneValid(phone) {
		httperr.BadRequest(c, "invalid_phone", "Telefone inválido.")
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var client models.Client
	if err := db.Where("id = ? AND barbershop_id = ?", id, middleware.Actor(c).BarbershopID).
		First(&client).Error; err != nil {
		httperr.NotFound(c, "client_not_found", "Cliente não encontrado.")
		return
	}

	client.Name = strings.TrimSpace(req.Name)
	client.Phone = phone
	client.Email = strings.ToLower(strings.TrimSpace(req.Email))
	client.Notes = req.Notes

	if err := db.Save(&client).Error; err != nil {
		httperr.Internal(c, "failed_to_update_client", "Erro ao atualizar cliente.")
		return
	}

	httpresp.OK(c, client)
}
