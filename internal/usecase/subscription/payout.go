package subscription

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-manager/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/subscription"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
)

type BarberPayout struct {
	BarberID   uint            `json:"barber_id"`
	BarberName string          `json:"barber_name"`
	Services   int             `json:"services"`
	Amount     decimal.Decimal `json:"amount"`
}

type PlanPayout struct {
	PlanID          uint            `json:"plan_id"`
	PlanName        string          `json:"plan_name"`
	Revenue         decimal.Decimal `json:"revenue"`
	Pool            decimal.Decimal `json:"pool"`
	CoveredServices int             `json:"covered_services"`
	Barbers         []BarberPayout  `json:"barbers"`
}

type PayoutReport struct {
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
	Plans []PlanPayout    `json:"plans"`
	Total decimal.Decimal `json:"total"`
}

// Payout splits the subscription revenue of a period: each plan reserves
// CommissionPercentage of what it collected and the pool is shared among
// barbers by the number of covered services they performed.
type Payout struct {
	repo domain.Repository
}

func NewPayout(repo domain.Repository) *Payout {
	return &Payout{repo: repo}
}

func (uc *Payout) Execute(ctx context.Context, actor staff.Actor, from, to time.Time) (*PayoutReport, error) {
	if !actor.Role.ManagesShop() {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if !to.After(from) {
		return nil, httperr.ErrBusiness("invalid_period")
	}
	shopID := actor.BarbershopID

	plans, err := uc.repo.ListPlans(ctx, shopID, false)
	if err != nil {
		return nil, err
	}
	paid, err := uc.repo.ListPayments(ctx, shopID, from, to)
	if err != nil {
		return nil, err
	}
	counts, err := uc.repo.CountCoveredServices(ctx, shopID, from, to)
	if err != nil {
		return nil, err
	}
	users, err := uc.repo.ListStaff(ctx, shopID)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	revenue := make(map[uint]decimal.Decimal)
	for _, p := range paid {
		revenue[p.PlanID] = revenue[p.PlanID].Add(p.Amount)
	}

	perPlan := make(map[uint][]domain.CoveredCount)
	for _, c := range counts {
		perPlan[c.PlanID] = append(perPlan[c.PlanID], c)
	}

	report := &PayoutReport{From: from, To: to, Plans: []PlanPayout{}, Total: decimal.Zero}
	for _, plan := range plans {
		rev, hasRevenue := revenue[plan.ID]
		rows := perPlan[plan.ID]
		if !hasRevenue && len(rows) == 0 {
			continue
		}

		pp := PlanPayout{
			PlanID:   plan.ID,
			PlanName: plan.Name,
			Revenue:  ledger.Cents(rev),
			Pool:     ledger.Commission(rev, plan.CommissionPercentage),
			Barbers:  []BarberPayout{},
		}
		for _, r := range rows {
			pp.CoveredServices += r.Services
		}

		pp.Barbers = splitPool(pp.Pool, rows, names)
		report.Plans = append(report.Plans, pp)
		for _, b := range pp.Barbers {
			report.Total = report.Total.Add(b.Amount)
		}
	}
	return report, nil
}

// splitPool shares pool by service count. Rounding leftovers go to the
// barber with the most services so the shares add up to the pool.
func splitPool(pool decimal.Decimal, rows []domain.CoveredCount, names map[uint]string) []BarberPayout {
	total := 0
	for _, r := range rows {
		total += r.Services
	}
	out := make([]BarberPayout, 0, len(rows))
	if total == 0 {
		return out
	}

	sum := decimal.Zero
	for _, r := range rows {
		share := pool.Mul(decimal.NewFromInt(int64(r.Services))).
			Div(decimal.NewFromInt(int64(total))).
			RoundFloor(2)
		sum = sum.Add(share)
		out = append(out, BarberPayout{
			BarberID:   r.BarberID,
			BarberName: names[r.BarberID],
			Services:   r.Services,
			Amount:     share,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Services != out[j].Services {
			return out[i].Services > out[j].Services
		}
		return out[i].BarberID < out[j].BarberID
	})
	if rest := pool.Sub(sum); !rest.IsZero() {
		out[0].Amount = out[0].Amount.Add(rest)
	}
	return out
}
