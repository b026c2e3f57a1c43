package review

import (
	"context"
	"math"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// NPS bands.
const (
	PromoterMin  = 9
	DetractorMax = 6
)

type Filter struct {
	BarbershopID uint
	BarberID     *uint
	From, To     time.Time
	Limit        int
}

type Repository interface {
	GetBarbershopBySlug(ctx context.Context, slug string) (*models.Barbershop, error)
	GetBarber(ctx context.Context, barbershopID, barberID uint) (*models.User, error)
	GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error)
	GetAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Appointment, error)

	HasAppointmentReview(ctx context.Context, appointmentID uint) (bool, error)
	CreateReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, f Filter) ([]models.Review, error)
}

type Summary struct {
	Total      int     `json:"total"`
	Promoters  int     `json:"promoters"`
	Passives   int     `json:"passives"`
	Detractors int     `json:"detractors"`
	NPS        int     `json:"nps"`
	Ratings    int     `json:"ratings"`
	AvgRating  float64 `json:"avg_rating"`
}

// Summarize computes the net promoter score (promoters minus detractors as a
// percentage of answers) and the average of the optional star ratings.
func Summarize(reviews []models.Review) Summary {
	var s Summary
	stars := 0
	for _, r := range reviews {
		s.Total++
		switch {
		case r.NPSScore >= PromoterMin:
			s.Promoters++
		case r.NPSScore <= DetractorMax:
			s.Detractors++
		default:
			s.Passives++
		}
		if r.Rating != nil {
			s.Ratings++
			stars += *r.Rating
		}
	}

	if s.Total > 0 {
		s.NPS = int(math.Round(float64(s.Promoters-s.Detractors) * 100 / float64(s.Total)))
	}
	if s.Ratings > 0 {
		s.AvgRating = math.Round(float64(stars)/float64(s.Ratings)*100) / 100
	}
	return s
}
