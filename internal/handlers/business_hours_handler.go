package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// cached grids dropped when the opening hours change
const hoursInvalidationDays = 31

type BusinessHoursHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	cache cache.Cache
}

func NewBusinessHoursHandler(db *gorm.DB, a audit.Recorder, c cache.Cache) *BusinessHoursHandler {
	return &BusinessHoursHandler{db: db, audit: a, cache: c}
}

type BusinessDayConfig struct {
	Weekday   int    `json:"weekday" binding:"min=0,max=6"`
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

type BusinessHoursUpdateRequest struct {
	Days []BusinessDayConfig `json:"days" binding:"required,dive"`
}

func (h *BusinessHoursHandler) Get(c *gin.Context) {
	var hours []models.BusinessHours
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", middleware.Actor(c).BarbershopID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {

		httperr.Internal(c, "failed_to_get_business_hours", "Erro ao carregar horários.")
		return
	}

	httpresp.List(c, hours)
}

// Update replaces the whole week. Weekdays left out have no row and fall
// back to the default window when slots are generated.
func (h *BusinessHoursHandler) Update(c *gin.Context) {
	actor := middleware.Actor(c)

	var req BusinessHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	seen := map[int]bool{}
	rows := make([]models.BusinessHours, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.Weekday] {
			httperr.BadRequest(c, "duplicated_weekday", "Dia da semana repetido.")
			return
		}
		seen[d.Weekday] = true

		row := models.BusinessHours{
			BarbershopID: actor.BarbershopID,
			Weekday:      d.Weekday,
			Closed:       d.Closed,
		}
		if !d.Closed {
			open, ok1 := schedule.ParseClock(d.OpenTime)
			closeAt, ok2 := schedule.ParseClock(d.CloseTime)
			if !ok1 || !ok2 || open >= closeAt {
				httperr.BadRequest(c, "invalid_hours", "Horário de funcionamento inválido.")
				return
			}
			row.OpenTime = schedule.NormalizeClock(d.OpenTime)
			row.CloseTime = schedule.NormalizeClock(d.CloseTime)
		}
		rows = append(rows, row)
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("barbershop_id = ?", actor.BarbershopID).Delete(&models.BusinessHours{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_save_business_hours", "Erro ao salvar horários.")
		return
	}

	h.dropGrids(c, actor.BarbershopID)

	h.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       "business_hours_updated",
		Entity:       "barbershop",
		EntityID:     &actor.BarbershopID,
		Metadata:     rows,
	})

	httpresp.List(c, rows)
}

func (h *BusinessHoursHandler) dropGrids(c *gin.Context, barbershopID uint) {
	if h.cache == nil {
		return
	}
	var shop models.Barbershop
	if err := h.db.WithContext(c.Request.Context()).Select("id", "timezone").First(&shop, barbershopID).Error; err != nil {
		log.Printf("[cache] drop grids shop=%d: %v", barbershopID, err)
		return
	}

	today := timezone.NowIn(shop.Timezone)
	keys := make([]string, 0, hoursInvalidationDays)
	for i := 0; i < hoursInvalidationDays; i++ {
		keys = append(keys, cache.GridKey(barbershopID, today.AddDate(0, 0, i).Format(dateLayout)))
	}
	if err := h.cache.Delete(c.Request.Context(), keys...); err != nil {
		log.Printf("[cache] drop grids shop=%d: %v", barbershopID, err)
	}
}
