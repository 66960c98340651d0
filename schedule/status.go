/*
status.go - Per-obligation status calculation

PURPOSE:
  StatusOf derives an obligation's current state by comparing amounts and
  today's date. It is re-evaluated on every read, never persisted, so an
  untouched obligation ages pending -> due_soon -> overdue as calendar time
  passes without any write.

DECISION ORDER (first match wins):
  1. remaining <= 0            -> paid
  2. paid > 0                  -> partial
  3. due date before today     -> overdue
  4. due within 7 days         -> due_soon
  5. otherwise                 -> pending

A fully-paid obligation is paid no matter how far past its due date; a
partially-paid one reads partial even when overdue (the delinquency
aggregate is where overdue partials would surface if policy changes).
*/
package schedule

import "github.com/shopspring/decimal"

// StatusOf derives the obligation's status as of the given date.
func StatusOf(ob Obligation, today Date) Status {
	switch {
	case !ob.Remaining.IsPositive():
		return StatusPaid
	case ob.Paid.IsPositive():
		return StatusPartial
	case ob.DueDate.Before(today):
		return StatusOverdue
	case DaysBetween(today, ob.DueDate) <= dueSoonDays:
		return StatusDueSoon
	default:
		return StatusPending
	}
}

// Refresh recomputes every obligation's status in place as of today.
// Call before rendering or aggregating a schedule.
func Refresh(obs []Obligation, today Date) {
	for i := range obs {
		obs[i].Status = StatusOf(obs[i], today)
	}
}

// ClampedRemaining is the display-safe remaining amount: never negative,
// even if an over-application drove the raw value below zero. The raw
// Remaining stays untouched so reversals still balance exactly.
func ClampedRemaining(ob Obligation) decimal.Decimal {
	if ob.Remaining.IsNegative() {
		return decimal.Zero
	}
	return ob.Remaining
}
