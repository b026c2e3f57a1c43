package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// Source provides client visit history.
type Source interface {
	ClientPatterns(ctx context.Context, barbershopID uint) ([]ClientPattern, error)
}

// GormSource derives patterns from completed appointments.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

var _ Source = (*GormSource)(nil)

func (s *GormSource) ClientPatterns(ctx context.Context, barbershopID uint) ([]ClientPattern, error) {
	var rows []struct {
		ClientID  uint
		Name      string
		StartTime time.Time
		Price     decimal.Decimal
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("appointments.client_id, clients.name, appointments.start_time, appointments.price").
		Joins("JOIN clients ON clients.id = appointments.client_id").
		Where("appointments.barbershop_id = ? AND appointments.status = ?", barbershopID, "completed").
		Order("appointments.client_id ASC, appointments.start_time ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var out []ClientPattern
	var cur *ClientPattern
	var first time.Time
	total := decimal.Zero

	flush := func() {
		if cur == nil {
			return
		}
		if cur.Visits > 1 {
			cur.AvgIntervalDays = cur.LastVisit.Sub(first).Hours() / 24 / float64(cur.Visits-1)
		}
		cur.AvgTicket = total.Div(decimal.NewFromInt(int64(cur.Visits))).Round(2)
		out = append(out, *cur)
	}

	for _, r := range rows {
		if cur == nil || cur.ClientID != r.ClientID {
			flush()
			cur = &ClientPattern{ClientID: r.ClientID, Name: r.Name}
			first = r.StartTime
			total = decimal.Zero
		}
		cur.Visits++
		cur.LastVisit = r.StartTime
		total = total.Add(r.Price)
	}
	flush()

	return out, nil
}
