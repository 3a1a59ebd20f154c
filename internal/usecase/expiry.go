package usecase

import (
	"time"

	"dating-swipe-subscription/internal/domain/model"
)

// NormalizeRecord applies the lazy corrections due whenever a record is
// touched: downgrade-on-expiry first, then the daily counter reset. It is a
// pure function of (record, now, freeLimit) and must run at the start of
// every mutating transaction so a stale decision can never clobber a
// concurrent upgrade; the caller re-reads the record inside its own
// transaction and passes that fresh copy here.
//
// Returns true when the record changed and needs persisting.
func NormalizeRecord(rec *model.SubscriptionRecord, now time.Time, freeSwipeLimit int) bool {
	expired := rec.ExpireIfDue(now, freeSwipeLimit)
	reset := rec.ResetIfNewDay(now)
	return expired || reset
}
