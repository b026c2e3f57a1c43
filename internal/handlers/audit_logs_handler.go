package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 200
)

// AuditLogsHandler lists the trail written by audit.Dispatcher.
type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// pageParams reads ?page=&limit= with the audit defaults.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > auditMaxLimit {
		limit = auditDefaultLimit
	}
	return page, limit
}

// GET /api/me/audit-logs?action=&entity=&user_id=&from=&to=&page=&limit=
// from/to are whole UTC days, to inclusive.
func (h *AuditLogsHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.AuditLog{}).
		Where("barbershop_id = ?", middleware.Actor(c).BarbershopID)

	for _, col := range []string{"action", "entity"} {
		if v := c.Query(col); v != "" {
			q = q.Where(col+" = ?", v)
		}
	}

	userID, ok := optionalUint(c, "user_id")
	if !ok {
		return
	}
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	for _, bound := range []struct {
		param, cond string
		shift       time.Duration
	}{
		{"from", "created_at >= ?", 0},
		{"to", "created_at < ?", 24 * time.Hour},
	} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		day, err := parseDate(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_period", "Período inválido.")
			return
		}
		q = q.Where(bound.cond, day.Add(bound.shift))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Erro ao contar logs.")
		return
	}

	page, limit := pageParams(c)
	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error; err != nil {
		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	httpresp.Page(c, logs, total, page, limit)
}
