package schedule

type Column struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Row struct {
	Slot  string `json:"slot"`
	Cells []Cell `json:"cells"`
}

// Grid lays barbers out as columns and slots as rows.
type Grid struct {
	Granularity int      `json:"granularity"`
	Barbers     []Column `json:"barbers"`
	Rows        []Row    `json:"rows"`
}

func BuildGrid(slots []string, granularity int, barbers []Column, occupants []Occupant) Grid {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	byBarber := make(map[uint][]Occupant, len(barbers))
	for _, o := range occupants {
		byBarber[o.BarberID] = append(byBarber[o.BarberID], o)
	}

	rows := make([]Row, 0, len(slots))
	for _, slot := range slots {
		cells := make([]Cell, 0, len(barbers))
		for _, b := range barbers {
			cells = append(cells, Resolve(slot, granularity, byBarber[b.ID]))
		}
		rows = append(rows, Row{Slot: slot, Cells: cells})
	}

	return Grid{
		Granularity: granularity,
		Barbers:     barbers,
		Rows:        rows,
	}
}
