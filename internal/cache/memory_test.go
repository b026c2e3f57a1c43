package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	type grid struct{ Rows int }

	if err := m.Set(ctx, GridKey(1, "2024-06-03"), grid{Rows: 36}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, GridKey(1, "2024-06-04"), grid{Rows: 20}, time.Minute); err != nil {
		t.Fatal(err)
	}

	var got grid
	found, err := m.Get(ctx, GridKey(1, "2024-06-03"), &got)
	if err != nil || !found || got.Rows != 36 {
		t.Fatalf("get: %v %v %+v", found, err, got)
	}

	m.Delete(ctx, GridKey(1, "2024-06-03"))

	if found, _ := m.Get(ctx, GridKey(1, "2024-06-03"), &got); found {
		t.Fatal("deleted key still present")
	}
	if found, _ := m.Get(ctx, GridKey(1, "2024-06-04"), &got); !found {
		t.Fatal("unrelated key must survive a targeted delete")
	}
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "k", 1, time.Minute)

	now = now.Add(2 * time.Minute)
	var v int
	if found, _ := m.Get(ctx, "k", &v); found {
		t.Fatal("expired key returned")
	}
	if m.Len() != 0 {
		t.Fatal("expired key not evicted")
	}
}

func TestGridKey(t *testing.T) {
	if GridKey(12, "2024-06-03") != "grid:12:2024-06-03" {
		t.Fatal(GridKey(12, "2024-06-03"))
	}
}
