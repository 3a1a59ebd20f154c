package model

import (
	"time"

	"dating-swipe-subscription/internal/domain"
)

// FreePlanID is the reserved plan id for the free tier.
const FreePlanID = "free"

// DayKey renders the UTC calendar day used for daily quota resets.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// SubscriptionRecord is the per-user durable state combining plan assignment
// and daily quota counters. It is the only mutable shared resource of the
// engine and is mutated exclusively inside storage transactions.
//
// SwipesLimit is a snapshot taken at plan-assignment time, never a live join
// to the plan catalog; admin plan edits do not change records mid-cycle.
type SubscriptionRecord struct {
	UserID                string
	CurrentPlanID         string
	IsPremium             bool
	IsActive              bool
	PeriodStart           *time.Time
	PeriodEnd             *time.Time
	SwipesLimit           int // UnlimitedSwipes means no cap
	SwipesUsedToday       int
	LastResetDay          string // UTC day key, strictly non-decreasing
	AppliedTransactionIDs []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewFreeRecord constructs the lazy-created free-tier record for a user.
func NewFreeRecord(userID string, freeSwipeLimit int, now time.Time) (*SubscriptionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionRecord{
		UserID:          userID,
		CurrentPlanID:   FreePlanID,
		IsPremium:       false,
		IsActive:        false,
		SwipesLimit:     freeSwipeLimit,
		SwipesUsedToday: 0,
		LastResetDay:    DayKey(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (r *SubscriptionRecord) IsZero() bool { return r == nil || r.UserID == "" }

// Unlimited reports whether the current snapshot carries no daily cap.
func (r *SubscriptionRecord) Unlimited() bool { return r.SwipesLimit == UnlimitedSwipes }

// Expired reports whether a premium period has lapsed without downgrade yet.
func (r *SubscriptionRecord) Expired(now time.Time) bool {
	return r.IsPremium && r.PeriodEnd != nil && now.After(*r.PeriodEnd)
}

// CanSwipe reports whether one more swipe fits under the current counters.
// Callers must apply ResetIfNewDay/ExpireIfDue first.
func (r *SubscriptionRecord) CanSwipe() bool {
	return r.Unlimited() || r.SwipesUsedToday < r.SwipesLimit
}

// RemainingToday returns the swipes left today, or UnlimitedSwipes.
func (r *SubscriptionRecord) RemainingToday() int {
	if r.Unlimited() {
		return UnlimitedSwipes
	}
	if left := r.SwipesLimit - r.SwipesUsedToday; left > 0 {
		return left
	}
	return 0
}

// ResetIfNewDay zeroes the daily counter the first time the record is touched
// on a new UTC day. Returns true when the record changed.
func (r *SubscriptionRecord) ResetIfNewDay(now time.Time) bool {
	day := DayKey(now)
	if r.LastResetDay == day {
		return false
	}
	// LastResetDay only moves forward; a stale clock never rewinds it.
	if r.LastResetDay > day {
		return false
	}
	r.SwipesUsedToday = 0
	r.LastResetDay = day
	r.UpdatedAt = now
	return true
}

// ExpireIfDue applies the lazy downgrade when the premium period has lapsed:
// the record goes premium-expired and immediately free in the same pass.
// The daily counter is left untouched; ResetIfNewDay owns it.
// Returns true when the record changed.
func (r *SubscriptionRecord) ExpireIfDue(now time.Time, freeSwipeLimit int) bool {
	if !r.Expired(now) {
		return false
	}
	r.IsPremium = false
	r.IsActive = false
	r.CurrentPlanID = FreePlanID
	r.SwipesLimit = freeSwipeLimit
	r.PeriodStart = nil
	r.PeriodEnd = nil
	r.UpdatedAt = now
	return true
}

// HasTransaction reports whether a provider transaction id was already applied.
func (r *SubscriptionRecord) HasTransaction(txID string) bool {
	for _, id := range r.AppliedTransactionIDs {
		if id == txID {
			return true
		}
	}
	return false
}

// ApplyPlan performs the upgrade transition for a confirmed purchase.
// Re-applying mid-cycle overwrites the period bounds; durations never stack.
func (r *SubscriptionRecord) ApplyPlan(plan *Plan, transactionID string, now time.Time) error {
	if plan.IsZero() || transactionID == "" {
		return domain.ErrInvalidArgument
	}
	if r.HasTransaction(transactionID) {
		return domain.ErrAlreadyExists
	}
	start := now
	end := now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	r.CurrentPlanID = plan.ID
	r.IsPremium = true
	r.IsActive = true
	r.PeriodStart = &start
	r.PeriodEnd = &end
	r.SwipesLimit = plan.SwipeLimit
	r.SwipesUsedToday = 0
	r.LastResetDay = DayKey(now)
	r.AppliedTransactionIDs = append(r.AppliedTransactionIDs, transactionID)
	r.UpdatedAt = now
	return nil
}

// Cancel stops renewal without shortening the paid period: the record stays
// premium with its snapshot limit until natural expiry.
// Returns true when the record changed.
func (r *SubscriptionRecord) Cancel(now time.Time) bool {
	if !r.IsPremium || !r.IsActive {
		return false
	}
	r.IsActive = false
	r.UpdatedAt = now
	return true
}

// DaysRemaining returns whole days left in the paid period, zero for free
// or lapsed records.
func (r *SubscriptionRecord) DaysRemaining(now time.Time) int {
	if !r.IsPremium || r.PeriodEnd == nil || now.After(*r.PeriodEnd) {
		return 0
	}
	return int(r.PeriodEnd.Sub(now).Hours() / 24)
}
