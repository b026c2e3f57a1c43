// Package analytics estimates client churn and next month's revenue from
// visit history, optionally asking Gemini for short recommendations.
package analytics

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// defaultIntervalDays is assumed for clients with a single visit.
const defaultIntervalDays = 30

const projectionDays = 30

// ======================================================
// INPUT
// ======================================================

type ClientPattern struct {
	ClientID        uint            `json:"client_id"`
	Name            string          `json:"name"`
	Visits          int             `json:"visits"`
	LastVisit       time.Time       `json:"last_visit"`
	AvgIntervalDays float64         `json:"avg_interval_days"`
	AvgTicket       decimal.Decimal `json:"avg_ticket"`
}

type ScheduleInsights struct {
	OccupancyRate   float64         `json:"occupancy_rate"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`
	PeakHours       []string        `json:"peak_hours"`
	CancelRate      float64         `json:"cancel_rate"`
}

type Request struct {
	BarbershopID     uint             `json:"barbershopId"`
	ClientPatterns   []ClientPattern  `json:"clientPatterns"`
	ScheduleInsights ScheduleInsights `json:"scheduleInsights"`
}

// ======================================================
// OUTPUT
// ======================================================

type ChurnRisk struct {
	ClientID           uint    `json:"client_id"`
	Name               string  `json:"name"`
	DaysSinceLastVisit int     `json:"days_since_last_visit"`
	ExpectedInterval   float64 `json:"expected_interval_days"`
	Score              float64 `json:"score"`
	Risk               string  `json:"risk"`
}

type RevenueProjection struct {
	Days      int             `json:"days"`
	Baseline  decimal.Decimal `json:"baseline"`
	AtRisk    decimal.Decimal `json:"at_risk"`
	Expected  decimal.Decimal `json:"expected"`
	Potential decimal.Decimal `json:"potential"`
}

type Result struct {
	BarbershopID uint              `json:"barbershop_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Churn        []ChurnRisk       `json:"churn"`
	HighRisk     int               `json:"high_risk"`
	Revenue      RevenueProjection `json:"revenue"`
	Insights     []string          `json:"insights"`
}

// Advisor turns the computed numbers into recommendations.
type Advisor interface {
	Advise(ctx context.Context, r *Result, s ScheduleInsights) ([]string, error)
}

// ======================================================
// SERVICE
// ======================================================

type Service struct {
	source  Source
	advisor Advisor
	now     func() time.Time
}

// NewService accepts a nil advisor.
func NewService(source Source, advisor Advisor) *Service {
	return &Service{source: source, advisor: advisor, now: time.Now}
}

// Analyze loads the client patterns from the shop history when the request
// carries none.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	patterns := req.ClientPatterns
	if len(patterns) == 0 && s.source != nil && req.BarbershopID != 0 {
		loaded, err := s.source.ClientPatterns(ctx, req.BarbershopID)
		if err != nil {
			return nil, err
		}
		patterns = loaded
	}

	now := s.now()
	res := &Result{
		BarbershopID: req.BarbershopID,
		GeneratedAt:  now,
		Churn:        make([]ChurnRisk, 0, len(patterns)),
		Insights:     []string{},
	}

	for _, p := range patterns {
		c := Churn(p, now)
		if c.Risk == RiskHigh {
			res.HighRisk++
		}
		res.Churn = append(res.Churn, c)
	}
	sort.SliceStable(res.Churn, func(i, j int) bool {
		if res.Churn[i].Score != res.Churn[j].Score {
			return res.Churn[i].Score > res.Churn[j].Score
		}
		return res.Churn[i].ClientID < res.Churn[j].ClientID
	})

	res.Revenue = Project(patterns, res.Churn, req.ScheduleInsights)

	if s.advisor != nil {
		insights, err := s.advisor.Advise(ctx, res, req.ScheduleInsights)
		if err != nil {
			log.Printf("[analytics] advisor failed: %v", err)
		} else {
			res.Insights = insights
		}
	}
	return res, nil
}

// ======================================================
// CHURN
// ======================================================

// Churn scores how overdue a client is relative to their own rhythm. A score
// of 0 means on time; 1 means at least three intervals late.
func Churn(p ClientPattern, now time.Time) ChurnRisk {
	interval := p.AvgIntervalDays
	if p.Visits < 2 || interval <= 0 {
		interval = defaultIntervalDays
	}

	days := 0
	if !p.LastVisit.IsZero() && now.After(p.LastVisit) {
		days = int(now.Sub(p.LastVisit).Hours() / 24)
	}

	ratio := float64(days) / interval
	score := math.Max(0, math.Min(1, (ratio-1)/2))
	score = math.Round(score*100) / 100

	risk := RiskLow
	switch {
	case ratio >= 2:
		risk = RiskHigh
	case ratio >= 1.25:
		risk = RiskMedium
	}

	return ChurnRisk{
		ClientID:           p.ClientID,
		Name:               p.Name,
		DaysSinceLastVisit: days,
		ExpectedInterval:   math.Round(interval*10) / 10,
		Score:              score,
		Risk:               risk,
	}
}

// ======================================================
// REVENUE
// ======================================================

// Project estimates the next 30 days. Baseline is what every client would
// spend keeping their rhythm (or the schedule's daily average when larger),
// AtRisk is the share of high and medium risk clients weighted by score, and
// Potential adds the idle capacity at the current average ticket.
func Project(patterns []ClientPattern, churn []ChurnRisk, s ScheduleInsights) RevenueProjection {
	scores := make(map[uint]float64, len(churn))
	for _, c := range churn {
		if c.Risk != RiskLow {
			scores[c.ClientID] = math.Max(c.Score, 0.25)
		}
	}

	baseline := decimal.Zero
	atRisk := decimal.Zero
	for _, p := range patterns {
		interval := p.AvgIntervalDays
		if p.Visits < 2 || interval <= 0 {
			interval = defaultIntervalDays
		}
		expected := p.AvgTicket.Mul(decimal.NewFromFloat(projectionDays / interval))
		baseline = baseline.Add(expected)
		if sc, ok := scores[p.ClientID]; ok {
			atRisk = atRisk.Add(expected.Mul(decimal.NewFromFloat(sc)))
		}
	}

	if fromSchedule := s.AvgDailyRevenue.Mul(decimal.NewFromInt(projectionDays)); fromSchedule.GreaterThan(baseline) {
		baseline = fromSchedule
	}
	if atRisk.GreaterThan(baseline) {
		atRisk = baseline
	}

	expected := baseline.Sub(atRisk)
	potential := expected
	if s.OccupancyRate > 0 && s.OccupancyRate < 1 {
		potential = expected.Div(decimal.NewFromFloat(s.OccupancyRate))
	}

	return RevenueProjection{
		Days:      projectionDays,
		Baseline:  baseline.Round(2),
		AtRisk:    atRisk.Round(2),
		Expected:  expected.Round(2),
		Potential: potential.Round(2),
	}
}
