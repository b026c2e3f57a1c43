package appointment

import (
	"context"
	"log"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/cache"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

type DayGrid struct {
	Date string        `json:"date"`
	Grid schedule.Grid `json:"grid"`
}

// GetDayGrid builds the multi-barber grid of one day. The result is cached
// per (barbershop, day) and dropped by every write touching that day.
type GetDayGrid struct {
	repo  domain.Repository
	cache cache.Cache
}

func NewGetDayGrid(repo domain.Repository, c cache.Cache) *GetDayGrid {
	return &GetDayGrid{repo: repo, cache: c}
}

func (uc *GetDayGrid) Execute(
	ctx context.Context,
	barbershopID uint,
	date time.Time,
) (*DayGrid, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	loc := timezone.Location(shop.Timezone)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	key := cache.GridKey(barbershopID, day.Format("2006-01-02"))

	if uc.cache != nil {
		var cached DayGrid
		found, err := uc.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		if found {
			return &cached, nil
		}
	}

	barbers, err := uc.repo.ListBarbers(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	rows, err := uc.repo.ListBusinessHours(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	apps, err := uc.repo.ListShopAppointments(ctx, barbershopID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	columns := make([]schedule.Column, 0, len(barbers))
	for _, b := range barbers {
		columns = append(columns, schedule.Column{ID: b.ID, Name: b.Name})
	}

	occupants := make([]schedule.Occupant, 0, len(apps))
	for _, ap := range apps {
		occupants = append(occupants, domain.Occupant(ap, loc))
	}

	granularity := shop.SlotMinutes
	slots := schedule.GenerateTimeSlots(day, domain.WeeklyHours(rows), granularity)

	out := &DayGrid{
		Date: day.Format("2006-01-02"),
		Grid: schedule.BuildGrid(slots, granularity, columns, occupants),
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, out, cache.GridTTL); err != nil {
			log.Printf("[cache] set %s: %v", key, err)
		}
	}

	return out, nil
}
