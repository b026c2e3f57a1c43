// Package cache stores rendered read models (the day grid) keyed by entity,
// so a write only drops the keys it touched.
package cache

import (
	"context"
	"fmt"
	"time"
)

type Cache interface {
	// Get decodes the value at key into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const GridTTL = 10 * time.Minute

// GridKey identifies the grid of one barbershop day ("2006-01-02").
func GridKey(barbershopID uint, day string) string {
	return fmt.Sprintf("grid:%d:%s", barbershopID, day)
}
