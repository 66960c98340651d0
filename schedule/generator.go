/*
generator.go - Derives the full obligation list from loan terms

PURPOSE:
  Generate is the single source of a client's obligation calendar. Given
  loan terms it produces the down payment, the plates fee, and N monthly
  installments (equal amounts, or per-entry amounts when a custom schedule
  is active). Pure function: no side effects, deterministic for identical
  input, no clock access.

EMISSION ORDER:
  Monthly obligations first, then down payment, then plates. Callers
  re-sort by due date for display (see SortByDueDate).

VALIDATION:
  Generate never validates. A custom schedule whose entries do not sum to
  the total balance still generates exactly what was given; the sum check
  is the separate ValidateCustomSchedule predicate, run by the save path
  before terms are persisted.

SEE ALSO:
  - status.go: Recomputes each obligation's status at read time
  - reconcile.go: Re-runs Generate with paid-amount carry-over
*/
package schedule

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// dueSoonDays is the window ahead of a due date where an unpaid obligation
// reads as due_soon rather than pending.
const dueSoonDays = 7

// sumTolerance is the currency tolerance for the custom-schedule sum check.
var sumTolerance = decimal.RequireFromString("0.01")

// Generate produces the ordered list of scheduled obligations for the given
// loan terms: monthly installments, then down payment, then plates.
func Generate(terms LoanTerms) []Obligation {
	var obs []Obligation

	if terms.UseCustomSchedule && len(terms.CustomSchedule) > 0 {
		for i, entry := range terms.CustomSchedule {
			obs = append(obs, newObligation(
				fmt.Sprintf("monthly_%d", entry.Number),
				KindMonthly,
				entry.Number,
				fmt.Sprintf("Payment %d", entry.Number),
				entry.Amount,
				decimal.Zero,
				terms.PaymentStartDate.AddMonths(i),
			))
		}
	} else {
		for i := 0; i < terms.NumberOfPayments; i++ {
			obs = append(obs, newObligation(
				fmt.Sprintf("monthly_%d", i+1),
				KindMonthly,
				i+1,
				fmt.Sprintf("Payment %d", i+1),
				terms.MonthlyPayment,
				decimal.Zero,
				terms.PaymentStartDate.AddMonths(i),
			))
		}
	}

	if terms.DownPayment.IsPositive() {
		due := terms.DownPaymentDue
		if due.IsZero() {
			due = terms.PaymentStartDate
		}
		obs = append(obs, newObligation(
			"downpayment_1", KindDownPayment, 0, "Down Payment",
			terms.DownPayment, terms.DownPaymentPaid, due,
		))
	}

	if terms.PlatesAmount.IsPositive() {
		due := terms.PlatesDue
		if due.IsZero() {
			due = terms.PaymentStartDate
		}
		obs = append(obs, newObligation(
			"plates_1", KindPlates, 0, "Plates Fee",
			terms.PlatesAmount, terms.PlatesPaid, due,
		))
	}

	return obs
}

func newObligation(id string, kind Kind, seq int, label string, amount, paid decimal.Decimal, due Date) Obligation {
	ob := Obligation{
		ID:        id,
		Kind:      kind,
		Sequence:  seq,
		Label:     label,
		Amount:    amount,
		DueDate:   due,
		Paid:      paid,
		Remaining: amount.Sub(paid),
	}
	ob.Status = seedStatus(ob)
	return ob
}

// seedStatus is the date-free status assigned at creation time. The full
// Status Calculator (status.go) additionally considers overdue/due_soon;
// it overwrites this on every read.
func seedStatus(ob Obligation) Status {
	switch {
	case !ob.Remaining.IsPositive():
		return StatusPaid
	case ob.Paid.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// ValidateCustomSchedule reports whether the custom entries sum to the
// total balance within the currency tolerance. Terms without an active
// custom schedule are always valid. The save path must check this before
// persisting custom terms; Generate itself never does.
func ValidateCustomSchedule(terms LoanTerms) bool {
	if !terms.UseCustomSchedule || len(terms.CustomSchedule) == 0 {
		return true
	}
	sum := decimal.Zero
	for _, entry := range terms.CustomSchedule {
		sum = sum.Add(entry.Amount)
	}
	return sum.Sub(terms.TotalBalance).Abs().LessThanOrEqual(sumTolerance)
}

// SortByDueDate orders a schedule for display: ascending due date, monthly
// sequence as tiebreaker.
func SortByDueDate(obs []Obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if !obs[i].DueDate.Equal(obs[j].DueDate) {
			return obs[i].DueDate.Before(obs[j].DueDate)
		}
		return obs[i].Sequence < obs[j].Sequence
	})
}
