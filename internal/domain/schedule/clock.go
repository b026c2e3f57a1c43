// Package schedule holds the pure slot arithmetic behind the booking grid:
// day slot labels, duration to slot mapping and per-cell occupancy.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultGranularity = 15

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes after midnight.
// Seconds are ignored.
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return h*60 + m, true
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock strips seconds from a stored time ("09:30:00" -> "09:30").
// Unparseable input is returned unchanged.
func NormalizeClock(s string) string {
	m, ok := ParseClock(s)
	if !ok {
		return s
	}
	return FormatClock(m)
}

// IsTimeInRange reports start <= t < end.
func IsTimeInRange(t, start, end string) bool {
	tm, ok1 := ParseClock(t)
	sm, ok2 := ParseClock(start)
	em, ok3 := ParseClock(end)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return sm <= tm && tm < em
}

// SlotsCount maps a duration to the number of grid rows it spans: ceil(d/g), at least 1.
func SlotsCount(durationMin, granularity int) int {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	if durationMin <= 0 {
		return 1
	}
	n := (durationMin + granularity - 1) / granularity
	if n < 1 {
		return 1
	}
	return n
}
