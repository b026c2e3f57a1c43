package appointment

import (
	"context"
	"log"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/cache"
)

// invalidateDay drops the cached grid of the day t falls on. t must be in
// the barbershop location.
func invalidateDay(ctx context.Context, c cache.Cache, barbershopID uint, t time.Time) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, cache.GridKey(barbershopID, t.Format("2006-01-02"))); err != nil {
		log.Printf("[cache] invalidate grid shop=%d day=%s: %v", barbershopID, t.Format("2006-01-02"), err)
	}
}
