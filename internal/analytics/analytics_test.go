package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.AddDate(0, 0, -n) }

func TestChurnLevels(t *testing.T) {
	cases := []struct {
		name      string
		p         ClientPattern
		wantRisk  string
		wantScore float64
	}{
		{"on rhythm", ClientPattern{Visits: 5, AvgIntervalDays: 20, LastVisit: daysAgo(10)}, RiskLow, 0},
		{"a bit late", ClientPattern{Visits: 5, AvgIntervalDays: 20, LastVisit: daysAgo(30)}, RiskMedium, 0.25},
		{"gone", ClientPattern{Visits: 5, AvgIntervalDays: 20, LastVisit: daysAgo(80)}, RiskHigh, 1},
		{"single visit uses default", ClientPattern{Visits: 1, AvgIntervalDays: 3, LastVisit: daysAgo(60)}, RiskHigh, 0.5},
		{"never came", ClientPattern{}, RiskLow, 0},
	}
	for _, tc := range cases {
		got := Churn(tc.p, now)
		if got.Risk != tc.wantRisk || got.Score != tc.wantScore {
			t.Fatalf("%s: risk=%s score=%v, want %s %v", tc.name, got.Risk, got.Score, tc.wantRisk, tc.wantScore)
		}
	}
}

func TestProject(t *testing.T) {
	patterns := []ClientPattern{
		{ClientID: 1, Visits: 4, AvgIntervalDays: 15, AvgTicket: decimal.NewFromInt(50), LastVisit: daysAgo(5)},
		{ClientID: 2, Visits: 1, AvgTicket: decimal.NewFromInt(40), LastVisit: daysAgo(90)},
	}
	churn := []ChurnRisk{Churn(patterns[0], now), Churn(patterns[1], now)}

	got := Project(patterns, churn, ScheduleInsights{OccupancyRate: 0.5})
	want := map[string]string{
		"baseline":  "140",
		"at_risk":   "40",
		"expected":  "100",
		"potential": "200",
	}
	values := map[string]decimal.Decimal{
		"baseline":  got.Baseline,
		"at_risk":   got.AtRisk,
		"expected":  got.Expected,
		"potential": got.Potential,
	}
	for k, w := range want {
		if !values[k].Equal(decimal.RequireFromString(w)) {
			t.Fatalf("%s = %s, want %s", k, values[k], w)
		}
	}

	// média diária da agenda maior que o ritmo dos clientes
	got = Project(patterns, churn, ScheduleInsights{AvgDailyRevenue: decimal.NewFromInt(10)})
	if !got.Baseline.Equal(decimal.NewFromInt(300)) || !got.Expected.Equal(decimal.NewFromInt(260)) {
		t.Fatalf("projection = %+v", got)
	}
}

type stubAdvisor struct {
	out []string
	err error
}

func (s stubAdvisor) Advise(context.Context, *Result, ScheduleInsights) ([]string, error) {
	return s.out, s.err
}

func TestAnalyzeSortsAndAdvises(t *testing.T) {
	svc := NewService(nil, stubAdvisor{out: []string{"Ofereça um plano mensal"}})
	svc.now = func() time.Time { return now }

	res, err := svc.Analyze(t.Context(), Request{
		BarbershopID: 1,
		ClientPatterns: []ClientPattern{
			{ClientID: 1, Visits: 3, AvgIntervalDays: 30, LastVisit: daysAgo(3)},
			{ClientID: 2, Visits: 3, AvgIntervalDays: 10, LastVisit: daysAgo(40)},
		},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Churn[0].ClientID != 2 || res.HighRisk != 1 {
		t.Fatalf("churn = %+v", res.Churn)
	}
	if len(res.Insights) != 1 {
		t.Fatalf("insights = %v", res.Insights)
	}

	// falha do modelo não derruba a análise
	svc.advisor = stubAdvisor{err: errors.New("quota")}
	res, err = svc.Analyze(t.Context(), Request{})
	if err != nil || len(res.Insights) != 0 || len(res.Churn) != 0 {
		t.Fatalf("res = %+v err = %v", res, err)
	}
}

func TestGormSourcePatterns(t *testing.T) {
	db := dbtest.Open(t)

	shop := models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	client := models.Client{BarbershopID: shop.ID, Name: "Davi", Phone: "5511977776666"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}

	visits := []struct {
		day    int
		status string
		price  int64
	}{
		{50, "completed", 40},
		{30, "completed", 60},
		{10, "completed", 50},
		{5, "cancelled", 99},
	}
	for _, v := range visits {
		start := daysAgo(v.day)
		ap := models.Appointment{
			BarbershopID: shop.ID, BarberID: 1, ClientID: client.ID, ServiceID: 1,
			StartTime: start, EndTime: start.Add(30 * time.Minute),
			Price: decimal.NewFromInt(v.price), Status: v.status,
		}
		if err := db.Omit("Client", "Service", "Barber", "Barbershop").Create(&ap).Error; err != nil {
			t.Fatalf("create appointment: %v", err)
		}
	}

	patterns, err := NewGormSource(db).ClientPatterns(t.Context(), shop.ID)
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("patterns = %+v", patterns)
	}
	p := patterns[0]
	if p.Visits != 3 || p.Name != "Davi" || p.AvgIntervalDays != 20 || !p.AvgTicket.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("pattern = %+v", p)
	}
}
