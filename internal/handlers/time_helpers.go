package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

const dateLayout = "2006-01-02"

// parseDate reads a calendar day. Use cases rebuild the day in the shop
// timezone from its year, month and day.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// parsePeriod reads ?from=&to= as whole days in tz, to inclusive. Without
// from the period starts on the first day of the current month, without to
// it ends today.
func parsePeriod(c *gin.Context, tz string) (time.Time, time.Time, bool) {
	loc := timezone.Location(tz)
	now := time.Now().In(loc)

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if s := c.Query("from"); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			httperr.BadRequest(c, "invalid_period", "Período inválido.")
			return time.Time{}, time.Time{}, false
		}
		from = d
	}
	if s := c.Query("to"); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			httperr.BadRequest(c, "invalid_period", "Período inválido.")
			return time.Time{}, time.Time{}, false
		}
		to = d
	}

	return from, to.AddDate(0, 0, 1), true
}

// idParam reads a numeric path parameter, answering 400 when it is not one.
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(v), true
}

// optionalUint reads a numeric query parameter. Empty yields nil.
func optionalUint(c *gin.Context, name string) (*uint, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Parâmetro inválido: "+name+".")
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// shopTimezone loads the timezone of the barbershop, falling back to the
// default one when unset.
func shopTimezone(db *gorm.DB, c *gin.Context, barbershopID uint) (string, bool) {
	var shop models.Barbershop
	if err := db.WithContext(c.Request.Context()).Select("id", "timezone").First(&shop, barbershopID).Error; err != nil {
		httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
		return "", false
	}
	if !timezone.IsValid(shop.Timezone) {
		return timezone.DefaultTimezone, true
	}
	return shop.Timezone, true
}
