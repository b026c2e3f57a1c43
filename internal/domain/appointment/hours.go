package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func WeeklyHours(rows []models.BusinessHours) schedule.WeeklyHours {
	out := make(schedule.WeeklyHours, len(rows))
	for _, r := range rows {
		if r.Weekday < 0 || r.Weekday > 6 {
			continue
		}
		out[time.Weekday(r.Weekday)] = schedule.DayHours{
			Open:   r.OpenTime,
			Close:  r.CloseTime,
			Closed: r.Closed,
		}
	}
	return out
}

// WithinBusinessHours valida se [start, end) cabe no expediente do dia.
// start and end must already be in the barbershop location.
func WithinBusinessHours(hours schedule.WeeklyHours, start, end time.Time) bool {
	open, close, ok := hours.Window(start)
	if !ok {
		return false
	}

	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Add(-time.Nanosecond).Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return false
	}

	s := start.Hour()*60 + start.Minute()
	e := s + int(end.Sub(start)/time.Minute)
	return s >= open && e <= close
}

// AvailabilityInput asks for the free start times of one service with one
// barber on Date (a day in the shop location).
type AvailabilityInput struct {
	BarbershopID uint
	BarberID     uint
	ServiceID    uint
	Date         time.Time
}

// TimeSlot is a bookable [Start, End) window as "HH:MM" labels.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
