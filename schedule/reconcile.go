/*
reconcile.go - Schedule regeneration, carry-over, and counter reconciliation

PURPOSE:
  Decides when a stored schedule must be rebuilt (loan terms changed) and,
  when rebuilding, carries already-collected amounts forward so a terms
  edit never erases payment history. Also recomputes the denormalized
  top-level counters the client record carries.

CARRY-OVER MATCHING:
  A new obligation inherits an old one's paid amount when they share an id,
  or failing that the same (kind, sequence). Raising the monthly payment
  mid-loan must not erase payments already recorded against installment 3:
  the regenerated monthly_3 has the new amount but the old paid amount,
  payment list, and attributed amounts.

COUNTERS:
  The client record stores redundant totals (remaining balance, down
  payment paid, plates paid). RecomputeCounters derives all of them from
  the schedule in one pass instead of hand-maintaining deltas at each
  mutation site.
*/
package schedule

import "github.com/shopspring/decimal"

// TermsChanged reports whether the schedule-shaping fields differ between
// two versions of the loan terms. Any difference means the stored schedule
// was produced from stale terms and must be regenerated.
func TermsChanged(prev, next LoanTerms) bool {
	if !prev.DownPayment.Equal(next.DownPayment) ||
		!prev.DownPaymentPaid.Equal(next.DownPaymentPaid) ||
		!prev.PlatesAmount.Equal(next.PlatesAmount) ||
		!prev.PlatesPaid.Equal(next.PlatesPaid) ||
		!prev.MonthlyPayment.Equal(next.MonthlyPayment) ||
		prev.NumberOfPayments != next.NumberOfPayments ||
		prev.UseCustomSchedule != next.UseCustomSchedule {
		return true
	}
	if prev.UseCustomSchedule {
		return !customEqual(prev.CustomSchedule, next.CustomSchedule)
	}
	return false
}

func customEqual(a, b []CustomEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Number != b[i].Number || !a[i].Amount.Equal(b[i].Amount) {
			return false
		}
	}
	return true
}

// MatchPrevious finds the obligation in the old schedule that corresponds
// to the given new obligation: identical id first, then identical
// (kind, sequence). Returns nil when nothing matches.
func MatchPrevious(old []Obligation, ob Obligation) *Obligation {
	for i := range old {
		if old[i].ID == ob.ID {
			return &old[i]
		}
	}
	for i := range old {
		if old[i].Kind == ob.Kind && old[i].Sequence == ob.Sequence {
			return &old[i]
		}
	}
	return nil
}

// Regenerate rebuilds the schedule from the new terms and carries forward
// paid amounts, payment lists, and attributed amounts from matching
// obligations in the old schedule.
func Regenerate(old []Obligation, terms LoanTerms) []Obligation {
	obs := Generate(terms)
	for i := range obs {
		prev := MatchPrevious(old, obs[i])
		if prev == nil || !prev.Paid.IsPositive() {
			continue
		}
		obs[i].Paid = prev.Paid
		obs[i].Remaining = obs[i].Amount.Sub(prev.Paid)
		obs[i].Payments = append([]string(nil), prev.Payments...)
		if prev.Applied != nil {
			obs[i].Applied = make(map[string]decimal.Decimal, len(prev.Applied))
			for id, amt := range prev.Applied {
				obs[i].Applied[id] = amt
			}
		}
		obs[i].Status = seedStatus(obs[i])
	}
	return obs
}

// RecomputeCounters derives the client record's denormalized totals from
// the schedule. Remaining balance sums the clamped remaining across
// monthly obligations; the one-time counters report what was collected on
// the down payment and plates lines.
func RecomputeCounters(obs []Obligation) Counters {
	c := Counters{
		RemainingBalance: decimal.Zero,
		DownPaymentPaid:  decimal.Zero,
		PlatesPaid:       decimal.Zero,
	}
	for i := range obs {
		switch obs[i].Kind {
		case KindMonthly:
			c.RemainingBalance = c.RemainingBalance.Add(ClampedRemaining(obs[i]))
		case KindDownPayment:
			c.DownPaymentPaid = c.DownPaymentPaid.Add(obs[i].Paid)
		case KindPlates:
			c.PlatesPaid = c.PlatesPaid.Add(obs[i].Paid)
		}
	}
	return c
}
