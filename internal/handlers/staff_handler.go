package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/media"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// StaffHandler manages the team of a barbershop: barbers, receptionists and
// other admins.
type StaffHandler struct {
	db       *gorm.DB
	audit    audit.Recorder
	uploader *media.Uploader
}

func NewStaffHandler(db *gorm.DB, a audit.Recorder, uploader *media.Uploader) *StaffHandler {
	return &StaffHandler{db: db, audit: a, uploader: uploader}
}

// --------- Requests ---------

type CreateStaffRequest struct {
	Name           string          `json:"name" binding:"required"`
	Email          string          `json:"email" binding:"required,email"`
	Password       string          `json:"password" binding:"required,min=6"`
	Phone          string          `json:"phone"`
	Role           string          `json:"role" binding:"required"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type UpdateStaffRequest struct {
	Name           *string          `json:"name,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	Role           *string          `json:"role,omitempty"`
	Active         *bool            `json:"active,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

// --------- Handlers ---------

func (h *StaffHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", middleware.Actor(c).BarbershopID)

	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var users []models.User
	if err := q.Order("name ASC").Find(&users).Error; err != nil {
		httperr.Internal(c, "failed_to_list_staff", "Erro ao listar equipe.")
		return
	}

	httpresp.List(c, users)
}

func (h *StaffHandler) Create(c *gin.Context) {
	actor := middleware.Actor(c)

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	role, err := staff.ParseRole(req.Role)
	if err != nil {
		httperr.BadRequest(c, "invalid_role", "Perfil inválido.")
		return
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(hundred) {
		httperr.BadRequest(c, "invalid_commission_rate", "Comissão inválida.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := h.db.WithContext(c.Request.Context())

	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		httperr.Conflict(c, "email_already_exists", "E-mail já cadastrado.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao criar usuário.")
		return
	}

	user := models.User{
		BarbershopID:   actor.BarbershopID,
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   string(hashed),
		Phone:          req.Phone,
		Role:           string(role),
		Active:         true,
		CommissionRate: req.CommissionRate,
	}
	if err := db.Create(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_create_user", "Erro ao criar usuário.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "staff_created",
		Entity:       "user",
		EntityID:     &user.ID,
		Metadata:     map[string]any{"role": user.Role},
	})

	httpresp.Created(c, user)
}

func (h *StaffHandler) Update(c *gin.Context) {
	actor := middleware.Actor(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, ok := h.load(c, id)
	if !ok {
		return
	}

	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		role, err := staff.ParseRole(*req.Role)
		if err != nil {
			httperr.BadRequest(c, "invalid_role", "Perfil inválido.")
			return
		}
		// o admin não rebaixa a si mesmo
		if user.ID == actor.UserID && role != staff.RoleAdmin {
			httperr.BadRequest(c, "cannot_demote_self", "Você não pode alterar o próprio perfil.")
			return
		}
		user.Role = string(role)
	}
	if req.Active != nil {
		if user.ID == actor.UserID && !*req.Active {
			httperr.BadRequest(c, "cannot_deactivate_self", "Você não pode desativar a si mesmo.")
			return
		}
		user.Active = *req.Active
	}
	if req.CommissionRate != nil {
		if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(hundred) {
			httperr.BadRequest(c, "invalid_commission_rate", "Comissão inválida.")
			return
		}
		user.CommissionRate = *req.CommissionRate
	}

	if err := h.db.WithContext(c.Request.Context()).Omit("Barbershop").Save(user).Error; err != nil {
		httperr.Internal(c, "failed_to_update_user", "Erro ao atualizar usuário.")
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "staff_updated",
		Entity:       "user",
		EntityID:     &user.ID,
		Metadata:     map[string]any{"role": user.Role, "active": user.Active},
	})

	httpresp.OK(c, user)
}

// UploadAvatar accepts a multipart "file". Barbers may only change their
// own picture.
func (h *StaffHandler) UploadAvatar(c *gin.Context) {
	actor := middleware.Actor(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !actor.CanActFor(id) {
		httperr.Forbidden(c, "forbidden", "Você não tem permissão para esta ação.")
		return
	}

	user, ok := h.load(c, id)
	if !ok {
		return
	}

	data, ok := readUpload(c)
	if !ok {
		return
	}

	url, err := h.uploader.Upload(c.Request.Context(), media.KindAvatar, actor.BarbershopID, user.ID, data)
	if err != nil {
		mapUploadErrors(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("avatar_url", url).Error; err != nil {
		httperr.Internal(c, "failed_to_update_user", "Erro ao atualizar usuário.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

func (h *StaffHandler) load(c *gin.Context, id uint) (*models.User, bool) {
	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, middleware.Actor(c).BarbershopID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "user_not_found", "Usuário não encontrado.")
		return nil, false
	}
	if err != nil {
		httperr.Internal(c, "failed_to_get_user", "Erro ao buscar usuário.")
		return nil, false
	}
	return &user, true
}
