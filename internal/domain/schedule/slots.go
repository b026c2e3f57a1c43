package schedule

import "time"

// DayHours is the opening window of one weekday.
type DayHours struct {
	Open   string
	Close  string
	Closed bool
}

type WeeklyHours map[time.Weekday]DayHours

// Fallback window used when the hours configuration is missing or malformed.
const (
	FallbackOpen  = "08:00"
	FallbackClose = "20:00"
)

// Window resolves the [open, close) minutes for date's weekday. ok is false
// when the barbershop is closed that day.
func (w WeeklyHours) Window(date time.Time) (open, close int, ok bool) {
	fbOpen, _ := ParseClock(FallbackOpen)
	fbClose, _ := ParseClock(FallbackClose)

	if len(w) == 0 {
		return fbOpen, fbClose, true
	}

	day, found := w[date.Weekday()]
	if !found || day.Closed {
		return 0, 0, false
	}

	o, ok1 := ParseClock(day.Open)
	c, ok2 := ParseClock(day.Close)
	if !ok1 || !ok2 || o >= c {
		return fbOpen, fbClose, true
	}
	return o, c, true
}

// GenerateTimeSlots returns the "HH:MM" labels covering [open, close) of the
// date's weekday, stepped by granularity minutes. Closed days yield no labels.
func GenerateTimeSlots(date time.Time, hours WeeklyHours, granularity int) []string {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	open, close, ok := hours.Window(date)
	if !ok {
		return []string{}
	}

	slots := make([]string, 0, (close-open)/granularity+1)
	for m := open; m < close; m += granularity {
		slots = append(slots, FormatClock(m))
	}
	return slots
}
