package command

import (
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func TestSubscriptionCoversUntilExhausted(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, 1)
	cmd := f.open(t)

	cmd = f.add(t, cmd.ID, ledger.ItemService, f.haircut.ID, 1)
	first := cmd.Items[0]
	if !first.UnitPrice.IsZero() || first.ClientSubscriptionID == nil || *first.ClientSubscriptionID != sub.ID {
		t.Fatalf("first haircut should be covered: %+v", first)
	}

	var stored models.ClientSubscription
	f.db.First(&stored, sub.ID)
	if stored.RemainingServices != 0 {
		t.Fatalf("remaining = %d", stored.RemainingServices)
	}

	cmd = f.add(t, cmd.ID, ledger.ItemService, f.haircut.ID, 1)
	second := cmd.Items[1]
	if !second.UnitPrice.Equal(dec("50")) || second.ClientSubscriptionID != nil {
		t.Fatalf("second haircut must be charged: %+v", second)
	}

	f.db.First(&stored, sub.ID)
	if stored.RemainingServices != 0 {
		t.Fatalf("quota must not go negative, got %d", stored.RemainingServices)
	}
	if !cmd.TotalAmount.Equal(dec("50")) {
		t.Fatalf("total = %s", cmd.TotalAmount)
	}
}

func TestSubscriptionIgnoresServicesOutsidePlan(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, 3)
	cmd := f.open(t)

	cmd = f.add(t, cmd.ID, ledger.ItemService, f.beard.ID, 1)
	if !cmd.Items[0].UnitPrice.Equal(dec("30")) {
		t.Fatalf("beard is not in the plan: %+v", cmd.Items[0])
	}

	var stored models.ClientSubscription
	f.db.First(&stored, sub.ID)
	if stored.RemainingServices != 3 {
		t.Fatalf("quota touched: %d", stored.RemainingServices)
	}
}

func TestRemovingCoveredItemRestoresQuota(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, 1)
	cmd := f.open(t)
	cmd = f.add(t, cmd.ID, ledger.ItemService, f.haircut.ID, 1)

	if _, err := NewRemoveItem(f.repo, audit.Discard{}).Execute(t.Context(), f.actor(), cmd.ID, cmd.Items[0].ID); err != nil {
		t.Fatal(err)
	}

	var stored models.ClientSubscription
	f.db.First(&stored, sub.ID)
	if stored.RemainingServices != 1 {
		t.Fatalf("quota not restored: %d", stored.RemainingServices)
	}
}

func TestQueuedMonthStartsWhenPeriodEnds(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, 0)

	// mês pago adiantado e período anterior já encerrado
	start := time.Now().AddDate(0, -1, -1)
	end := time.Now().Add(-24 * time.Hour)
	if err := f.db.Model(&models.ClientSubscription{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"current_period_start": start,
		"current_period_end":   end,
		"prepaid_periods":      1,
	}).Error; err != nil {
		t.Fatal(err)
	}

	cmd := f.open(t)
	cmd = f.add(t, cmd.ID, ledger.ItemService, f.haircut.ID, 1)
	if it := cmd.Items[0]; !it.UnitPrice.IsZero() || it.ClientSubscriptionID == nil {
		t.Fatalf("haircut should be covered by the queued month: %+v", it)
	}

	var stored models.ClientSubscription
	f.db.First(&stored, sub.ID)
	if stored.PrepaidPeriods != 0 || stored.RemainingServices != 3 {
		t.Fatalf("expected new period with 3 left, got remaining=%d queued=%d", stored.RemainingServices, stored.PrepaidPeriods)
	}
	if d := stored.CurrentPeriodStart.Sub(end); d > time.Second || d < -time.Second {
		t.Fatalf("new period must start at the old end, got %v", stored.CurrentPeriodStart)
	}
}
