package schedule

import (
	"testing"
	"time"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func TestGenerateTimeSlotsNineToSix(t *testing.T) {
	hours := WeeklyHours{
		time.Monday: {Open: "09:00", Close: "18:00"},
	}

	slots := GenerateTimeSlots(monday, hours, 15)

	if len(slots) != 36 {
		t.Fatalf("expected 36 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" {
		t.Fatalf("first slot = %s", slots[0])
	}
	if slots[len(slots)-1] != "17:45" {
		t.Fatalf("last slot = %s", slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not ordered at %d: %s <= %s", i, slots[i], slots[i-1])
		}
	}
}

func TestGenerateTimeSlotsClosedDay(t *testing.T) {
	hours := WeeklyHours{
		time.Monday:  {Closed: true},
		time.Tuesday: {Open: "09:00", Close: "18:00"},
	}

	if slots := GenerateTimeSlots(monday, hours, 15); len(slots) != 0 {
		t.Fatalf("closed day should have no slots, got %v", slots)
	}

	sunday := monday.AddDate(0, 0, -1)
	if slots := GenerateTimeSlots(sunday, hours, 15); len(slots) != 0 {
		t.Fatalf("unconfigured weekday should be closed, got %d slots", len(slots))
	}
}

func TestGenerateTimeSlotsFallback(t *testing.T) {
	// no configuration at all
	slots := GenerateTimeSlots(monday, nil, 30)
	if len(slots) != 24 || slots[0] != FallbackOpen || slots[len(slots)-1] != "19:30" {
		t.Fatalf("unexpected fallback slots: %v", slots)
	}

	// malformed window
	hours := WeeklyHours{time.Monday: {Open: "25:99", Close: "nope"}}
	slots = GenerateTimeSlots(monday, hours, 30)
	if len(slots) != 24 || slots[0] != FallbackOpen {
		t.Fatalf("malformed hours should fall back, got %v", slots)
	}

	// inverted window
	hours = WeeklyHours{time.Monday: {Open: "18:00", Close: "09:00"}}
	slots = GenerateTimeSlots(monday, hours, 30)
	if len(slots) != 24 {
		t.Fatalf("inverted hours should fall back, got %d", len(slots))
	}
}

func TestGenerateTimeSlotsDefaultGranularity(t *testing.T) {
	hours := WeeklyHours{time.Monday: {Open: "09:00:00", Close: "10:00:00"}}

	slots := GenerateTimeSlots(monday, hours, 0)
	want := []string{"09:00", "09:15", "09:30", "09:45"}
	if len(slots) != len(want) {
		t.Fatalf("got %v", slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d = %s, want %s", i, slots[i], want[i])
		}
	}
}
