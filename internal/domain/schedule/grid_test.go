package schedule

import "testing"

func TestBuildGrid(t *testing.T) {
	slots := []string{"09:00", "09:15", "09:30", "09:45"}
	barbers := []Column{{ID: 10, Name: "Ana"}, {ID: 20, Name: "Bruno"}}
	occ := []Occupant{
		{ID: 1, BarberID: 10, Start: "09:00", End: "09:45"},
		{ID: 2, BarberID: 20, Start: "09:30", End: "10:00"},
	}

	g := BuildGrid(slots, 15, barbers, occ)

	if len(g.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(g.Rows))
	}
	for _, r := range g.Rows {
		if len(r.Cells) != 2 {
			t.Fatalf("row %s has %d cells", r.Slot, len(r.Cells))
		}
	}

	ana := func(i int) Cell { return g.Rows[i].Cells[0] }
	bruno := func(i int) Cell { return g.Rows[i].Cells[1] }

	if ana(0).State != CellStart || ana(0).Span != 3 {
		t.Fatalf("ana 09:00 = %+v", ana(0))
	}
	if ana(1).State != CellCovered || ana(2).State != CellCovered {
		t.Fatal("ana 09:15 and 09:30 should be covered")
	}
	if ana(3).State != CellFree {
		t.Fatalf("ana 09:45 = %+v", ana(3))
	}

	if bruno(0).State != CellFree || bruno(1).State != CellFree {
		t.Fatal("bruno should be free before 09:30")
	}
	if bruno(2).State != CellStart || bruno(2).OccupantID != 2 {
		t.Fatalf("bruno 09:30 = %+v", bruno(2))
	}
}
