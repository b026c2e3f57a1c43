package timezone

import (
	"sync"
	"time"
)

// DefaultTimezone is used for shops created without one and for any stored
// name the host tz database does not know.
const DefaultTimezone = "America/Sao_Paulo"

// loaded caches time.LoadLocation results; handlers resolve the shop zone on
// every request.
var loaded sync.Map // string -> *time.Location

func load(tz string) (*time.Location, bool) {
	if tz == "" {
		return nil, false
	}
	if loc, ok := loaded.Load(tz); ok {
		return loc.(*time.Location), true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, false
	}
	loaded.Store(tz, loc)
	return loc, true
}

func IsValid(tz string) bool {
	_, ok := load(tz)
	return ok
}

// Location never fails: unknown names fall back to DefaultTimezone, and to
// UTC if even that is missing from the host.
func Location(tz string) *time.Location {
	if loc, ok := load(tz); ok {
		return loc
	}
	if loc, ok := load(DefaultTimezone); ok {
		return loc
	}
	return time.UTC
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}
