package ledger

import (
	"time"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

const (
	SubscriptionPending   = "pending_payment"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Covers reports whether sub pays for serviceID at now: the subscription is
// active and inside its period, has quota left, and its plan lists the service.
// sub.Plan.Services must be loaded.
func Covers(sub *models.ClientSubscription, serviceID uint, now time.Time) bool {
	if sub == nil || sub.Status != SubscriptionActive || sub.RemainingServices <= 0 {
		return false
	}
	if sub.CurrentPeriodStart != nil && now.Before(*sub.CurrentPeriodStart) {
		return false
	}
	if sub.CurrentPeriodEnd != nil && !now.Before(*sub.CurrentPeriodEnd) {
		return false
	}
	for _, s := range sub.Plan.Services {
		if s.ID == serviceID {
			return true
		}
	}
	return false
}

// Renew starts a new monthly period with a full quota.
func Renew(sub *models.ClientSubscription, plan *models.SubscriptionPlan, start time.Time) {
	end := start.AddDate(0, 1, 0)
	sub.Status = SubscriptionActive
	sub.RemainingServices = plan.IncludedServices
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
}

// Credit applies one approved monthly payment. A payment that lands while a
// period is still running is queued and starts when that period ends, so the
// current quota and dates stay as they are.
func Credit(sub *models.ClientSubscription, plan *models.SubscriptionPlan, now time.Time) {
	Advance(sub, plan, now)
	if sub.Status == SubscriptionActive && sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
		sub.PrepaidPeriods++
		return
	}
	Renew(sub, plan, now)
}

// Advance rolls an active subscription into its queued periods once the
// current one is over. It reports whether sub changed.
func Advance(sub *models.ClientSubscription, plan *models.SubscriptionPlan, now time.Time) bool {
	changed := false
	for sub.Status == SubscriptionActive && sub.PrepaidPeriods > 0 &&
		sub.CurrentPeriodEnd != nil && !now.Before(*sub.CurrentPeriodEnd) {
		Renew(sub, plan, *sub.CurrentPeriodEnd)
		sub.PrepaidPeriods--
		changed = true
	}
	return changed
}
