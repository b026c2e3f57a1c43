package review

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/review"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

const maxCommentLength = 1000

// ======================================================
// PAGE CONTEXT
// ======================================================

type PageShop struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logo_url"`
}

type PageBarber struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type Page struct {
	Barbershop PageShop    `json:"barbershop"`
	Barber     *PageBarber `json:"barber,omitempty"`
}

type GetPage struct {
	repo domain.Repository
}

func NewGetPage(repo domain.Repository) *GetPage {
	return &GetPage{repo: repo}
}

// Execute returns what the public review page shows. An unknown barber is
// ignored rather than failing the page.
func (uc *GetPage) Execute(ctx context.Context, slug string, barberID uint) (*Page, error) {
	shop, err := shopBySlug(ctx, uc.repo, slug)
	if err != nil {
		return nil, err
	}

	page := &Page{Barbershop: PageShop{Name: shop.Name, Slug: shop.Slug, LogoURL: shop.LogoURL}}
	if barberID != 0 {
		if b, err := uc.repo.GetBarber(ctx, shop.ID, barberID); err == nil {
			page.Barber = &PageBarber{ID: b.ID, Name: b.Name, AvatarURL: b.AvatarURL}
		}
	}
	return page, nil
}

// ======================================================
// SUBMIT
// ======================================================

type SubmitInput struct {
	Slug string

	ClientID      uint
	BarberID      uint
	AppointmentID uint

	NPS     *int
	Rating  *int
	Comment string
	Name    string
	Phone   string
	Email   string
}

type Submit struct {
	repo  domain.Repository
	audit audit.Recorder
}

func NewSubmit(repo domain.Repository, a audit.Recorder) *Submit {
	return &Submit{repo: repo, audit: a}
}

func (uc *Submit) Execute(ctx context.Context, in SubmitInput) (*models.Review, error) {
	if in.NPS == nil || *in.NPS < 0 || *in.NPS > 10 {
		return nil, httperr.ErrBusiness("invalid_nps")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, httperr.ErrBusiness("invalid_rating")
	}
	comment := strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, httperr.ErrBusiness("comment_too_long")
	}

	phone := ""
	if strings.TrimSpace(in.Phone) != "" {
		if !validators.IsPhoneValid(in.Phone) {
			return nil, httperr.ErrBusiness("invalid_phone")
		}
		phone = validators.NormalizePhone(in.Phone)
	}

	shop, err := shopBySlug(ctx, uc.repo, in.Slug)
	if err != nil {
		return nil, err
	}

	rv := &models.Review{
		BarbershopID: shop.ID,
		NPSScore:     *in.NPS,
		Rating:       in.Rating,
		Comment:      comment,
		Name:         strings.TrimSpace(in.Name),
		Phone:        phone,
		Email:        strings.TrimSpace(in.Email),
	}

	// os parâmetros do link só valem se forem desta barbearia
	if in.AppointmentID != 0 {
		ap, err := uc.repo.GetAppointment(ctx, shop.ID, in.AppointmentID)
		if err != nil {
			return nil, notFound(err, "appointment_not_found")
		}
		done, err := uc.repo.HasAppointmentReview(ctx, ap.ID)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, httperr.ErrBusiness("already_reviewed")
		}
		rv.AppointmentID = &ap.ID
		if in.BarberID == 0 {
			in.BarberID = ap.BarberID
		}
		if in.ClientID == 0 {
			in.ClientID = ap.ClientID
		}
	}
	if in.BarberID != 0 {
		b, err := uc.repo.GetBarber(ctx, shop.ID, in.BarberID)
		if err != nil {
			return nil, notFound(err, "barber_not_found")
		}
		rv.BarberID = &b.ID
	}
	if in.ClientID != 0 {
		cl, err := uc.repo.GetClient(ctx, shop.ID, in.ClientID)
		if err != nil {
			return nil, notFound(err, "client_not_found")
		}
		rv.ClientID = &cl.ID
		if rv.Name == "" {
			rv.Name = cl.Name
		}
	}

	if err := uc.repo.CreateReview(ctx, rv); err != nil {
		// outro envio do mesmo link chegou primeiro
		if rv.AppointmentID != nil && httperr.IsUniqueViolation(err) {
			return nil, httperr.ErrBusiness("already_reviewed")
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		Action:       "review_submitted",
		Entity:       "review",
		EntityID:     &rv.ID,
		Metadata:     map[string]any{"nps": rv.NPSScore},
	})
	return rv, nil
}

// ======================================================
// SUMMARY / LIST
// ======================================================

type Query struct {
	repo domain.Repository
}

func NewQuery(repo domain.Repository) *Query {
	return &Query{repo: repo}
}

// Summary scores the shop, or a single barber. Barbers only see their own.
func (uc *Query) Summary(ctx context.Context, actor staff.Actor, barberID *uint, from, to time.Time) (*domain.Summary, error) {
	f, err := filterFor(actor, barberID, from, to)
	if err != nil {
		return nil, err
	}
	reviews, err := uc.repo.ListReviews(ctx, f)
	if err != nil {
		return nil, err
	}
	s := domain.Summarize(reviews)
	return &s, nil
}

func (uc *Query) List(ctx context.Context, actor staff.Actor, barberID *uint, from, to time.Time, limit int) ([]models.Review, error) {
	f, err := filterFor(actor, barberID, from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	f.Limit = limit
	return uc.repo.ListReviews(ctx, f)
}

func filterFor(actor staff.Actor, barberID *uint, from, to time.Time) (domain.Filter, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return domain.Filter{}, httperr.ErrBusiness("invalid_period")
	}
	if !actor.Role.ManagesShop() {
		if barberID != nil && *barberID != actor.UserID {
			return domain.Filter{}, httperr.ErrBusiness("forbidden")
		}
		barberID = &actor.UserID
	}
	return domain.Filter{BarbershopID: actor.BarbershopID, BarberID: barberID, From: from, To: to}, nil
}

func shopBySlug(ctx context.Context, repo domain.Repository, slug string) (*models.Barbershop, error) {
	shop, err := repo.GetBarbershopBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, notFound(err, "barbershop_not_found")
	}
	return shop, nil
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
