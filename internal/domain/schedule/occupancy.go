package schedule

import (
	"fmt"
	"sort"
)

type CellState int

const (
	CellFree CellState = iota
	CellStart
	CellCovered
)

func (s CellState) String() string {
	switch s {
	case CellFree:
		return "free"
	case CellStart:
		return "start"
	case CellCovered:
		return "covered"
	}
	return "unknown"
}

func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CellState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "free":
		*s = CellFree
	case "start":
		*s = CellStart
	case "covered":
		*s = CellCovered
	default:
		return fmt.Errorf("schedule: unknown cell state %q", b)
	}
	return nil
}

// Occupant is an appointment reduced to what the grid needs.
type Occupant struct {
	ID       uint
	BarberID uint
	Start    string
	End      string
}

// Cell is the resolved state of one (barber, slot) position.
type Cell struct {
	State      CellState `json:"state"`
	OccupantID uint      `json:"appointment_id,omitempty"`
	Span       int       `json:"span,omitempty"`

	// Other occupants that also claim this slot. Only non-empty when stored
	// data holds overlapping appointments for the same barber.
	Conflicts []uint `json:"conflicts,omitempty"`
}

// Span returns how many slots an occupant covers at the given granularity.
func (o Occupant) Span(granularity int) int {
	s, ok1 := ParseClock(o.Start)
	e, ok2 := ParseClock(o.End)
	if !ok1 || !ok2 || e <= s {
		return 1
	}
	return SlotsCount(e-s, granularity)
}

func ordered(occupants []Occupant) []Occupant {
	out := make([]Occupant, len(occupants))
	copy(out, occupants)
	sort.SliceStable(out, func(i, j int) bool {
		si, _ := ParseClock(out[i].Start)
		sj, _ := ParseClock(out[j].Start)
		if si != sj {
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Resolve decides the state of one slot for a single barber's occupants.
// An occupant starting exactly at slot wins over one covering it; ties are
// broken by earliest start, then lowest id, and the losers are reported in
// Cell.Conflicts.
func Resolve(slot string, granularity int, occupants []Occupant) Cell {
	slot = NormalizeClock(slot)

	var starter, coverer *Occupant
	var matched []uint

	for _, o := range ordered(occupants) {
		o := o
		start := NormalizeClock(o.Start)
		end := NormalizeClock(o.End)
		if !IsTimeInRange(slot, start, end) {
			continue
		}
		matched = append(matched, o.ID)
		if start == slot {
			if starter == nil {
				starter = &o
			}
		} else if coverer == nil {
			coverer = &o
		}
	}

	var cell Cell
	switch {
	case starter != nil:
		cell = Cell{State: CellStart, OccupantID: starter.ID, Span: starter.Span(granularity)}
	case coverer != nil:
		cell = Cell{State: CellCovered, OccupantID: coverer.ID}
	default:
		return Cell{State: CellFree}
	}

	for _, id := range matched {
		if id != cell.OccupantID {
			cell.Conflicts = append(cell.Conflicts, id)
		}
	}
	return cell
}

// FreeStarts returns the slot labels where a booking of durationMin fits
// before close without overlapping any occupant.
func FreeStarts(slots []string, close string, durationMin int, occupants []Occupant) []string {
	closeMin, ok := ParseClock(close)
	if !ok {
		return []string{}
	}

	out := []string{}
	for _, slot := range slots {
		start, ok := ParseClock(slot)
		if !ok {
			continue
		}
		end := start + durationMin
		if end > closeMin {
			break
		}
		if !overlapsAny(start, end, occupants) {
			out = append(out, slot)
		}
	}
	return out
}

func overlapsAny(start, end int, occupants []Occupant) bool {
	for _, o := range occupants {
		os, ok1 := ParseClock(o.Start)
		oe, ok2 := ParseClock(o.End)
		if !ok1 || !ok2 {
			continue
		}
		if start < oe && os < end {
			return true
		}
	}
	return false
}
