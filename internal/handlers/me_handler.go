package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// GetMe returns the logged user together with the barbershop the token is
// scoped to.
func (h *MeHandler) GetMe(c *gin.Context) {
	actor := middleware.Actor(c)

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Barbershop").
		Where("id = ? AND barbershop_id = ?", actor.UserID, actor.BarbershopID).
		First(&user).Error; err != nil {

		httperr.NotFound(c, "user_not_found", "Usuário não encontrado.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       userView(&user),
		"barbershop": shopView(&user.Barbershop),
	})
}
