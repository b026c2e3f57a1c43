package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	ucreview "github.com/BruksfildServices01/barber-manager/internal/usecase/review"
)

type ReviewHandler struct {
	db     *gorm.DB
	page   *ucreview.GetPage
	submit *ucreview.Submit
	query  *ucreview.Query
}

func NewReviewHandler(db *gorm.DB, a audit.Recorder) *ReviewHandler {
	repo := infraRepo.NewReviewGormRepository(db)

	return &ReviewHandler{
		db:     db,
		page:   ucreview.NewGetPage(repo),
		submit: ucreview.NewSubmit(repo, a),
		query:  ucreview.NewQuery(repo),
	}
}

// queryID reads an optional numeric query parameter, zero when absent.
func queryID(c *gin.Context, name string) (uint, bool) {
	v, ok := optionalUint(c, name)
	if !ok {
		return 0, false
	}
	if v == nil {
		return 0, true
	}
	return *v, true
}

// ======================================================
// PUBLIC
// ======================================================

// GET /review/:slug?barber=
func (h *ReviewHandler) Page(c *gin.Context) {
	barberID, ok := queryID(c, "barber")
	if !ok {
		return
	}

	page, err := h.page.Execute(c.Request.Context(), c.Param("slug"), barberID)
	if err != nil {
		mapReviewErrors(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type SubmitReviewRequest struct {
	NPS     *int   `json:"nps"`
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// POST /review/:slug?client=&barber=&appointment=
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	in := ucreview.SubmitInput{
		Slug:    c.Param("slug"),
		NPS:     req.NPS,
		Rating:  req.Rating,
		Comment: req.Comment,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	var ok bool
	if in.ClientID, ok = queryID(c, "client"); !ok {
		return
	}
	if in.BarberID, ok = queryID(c, "barber"); !ok {
		return
	}
	if in.AppointmentID, ok = queryID(c, "appointment"); !ok {
		return
	}

	rv, err := h.submit.Execute(c.Request.Context(), in)
	if err != nil {
		mapReviewErrors(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": rv.ID, "message": "Obrigado pela sua avaliação!"})
}

// ======================================================
// DASHBOARD
// ======================================================

// reviewPeriod reads optional ?from=&to= (inclusive days). Unlike the
// reports, an empty period means all time.
func (h *ReviewHandler) reviewPeriod(c *gin.Context) (time.Time, time.Time, bool) {
	if c.Query("from") == "" && c.Query("to") == "" {
		return time.Time{}, time.Time{}, true
	}
	tz, ok := shopTimezone(h.db, c, middleware.Actor(c).BarbershopID)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return parsePeriod(c, tz)
}

// GET /api/reviews/summary?barber_id=&from=&to=
func (h *ReviewHandler) Summary(c *gin.Context) {
	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}
	from, to, ok := h.reviewPeriod(c)
	if !ok {
		return
	}

	s, err := h.query.Summary(c.Request.Context(), middleware.Actor(c), barberID, from, to)
	if err != nil {
		mapReviewErrors(c, err)
		return
	}
	httpresp.OK(c, s)
}

// GET /api/reviews?barber_id=&from=&to=&limit=
func (h *ReviewHandler) List(c *gin.Context) {
	barberID, ok := optionalUint(c, "barber_id")
	if !ok {
		return
	}
	from, to, ok := h.reviewPeriod(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	reviews, err := h.query.List(c.Request.Context(), middleware.Actor(c), barberID, from, to, limit)
	if err != nil {
		mapReviewErrors(c, err)
		return
	}
	httpresp.List(c, reviews)
}
