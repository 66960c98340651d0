/*
apply.go - Applying and reversing payments against scheduled obligations

PURPOSE:
  Mutates a schedule in place when a payment is created, edited, or
  deleted. Editing a payment is a two-step reverse-then-apply, never a
  diff, so a payment whose amount, type, or linked obligation changed
  between edit states cannot double count.

ORPHANED REFERENCES:
  A payment whose AppliedTo id is absent from the schedule (or empty: a
  quick payment) is a no-op, not an error. Schedules evolve; a regenerated
  schedule may have dropped an obligation a payment referenced. The result
  reports Applied=false and callers surface a recoverable warning.

ATTRIBUTED AMOUNTS:
  Each obligation remembers, per payment id, the exact amount attributed
  to it. Reverse subtracts that stored amount, not the payment's current
  Amount field. Without this, editing a payment's amount and then deleting
  it would subtract the new amount where the old one was applied.

SIDE EFFECTS:
  None beyond the schedule slice itself. Callers persist the mutated
  schedule and recompute denormalized counters (reconcile.go).
*/
package schedule

import "github.com/shopspring/decimal"

// ApplyResult reports what Apply did.
type ApplyResult struct {
	// Applied is false when the payment was unlinked or its obligation id
	// no longer exists in the schedule.
	Applied bool

	// Partial is true when the payment amount was less than the
	// obligation's remaining amount before application.
	Partial bool

	// ObligationID is the id of the obligation the amount landed on.
	ObligationID string
}

// Apply records a payment against the obligation it is linked to and
// recomputes that obligation's paid/remaining/status. The schedule is
// mutated in place.
func Apply(obs []Obligation, p PaymentRecord, today Date) ApplyResult {
	i := indexByID(obs, p.AppliedTo)
	if i < 0 {
		return ApplyResult{}
	}
	ob := &obs[i]

	partial := p.Amount.LessThan(ob.Remaining)

	ob.Paid = ob.Paid.Add(p.Amount)
	ob.Remaining = ob.Amount.Sub(ob.Paid)

	if !containsID(ob.Payments, p.ID) {
		ob.Payments = append(ob.Payments, p.ID)
	}
	if ob.Applied == nil {
		ob.Applied = make(map[string]decimal.Decimal)
	}
	ob.Applied[p.ID] = ob.Applied[p.ID].Add(p.Amount)

	ob.Status = StatusOf(*ob, today)

	return ApplyResult{Applied: true, Partial: partial, ObligationID: ob.ID}
}

// Reverse removes a payment's contribution from the schedule. It locates
// the obligation that actually holds the payment id rather than trusting
// the record's current AppliedTo link, which may have been edited since
// the payment was applied. Returns false if no obligation holds it.
func Reverse(obs []Obligation, p PaymentRecord, today Date) bool {
	i := indexHolding(obs, p.ID)
	if i < 0 {
		// Fall back to the recorded link for schedules written before
		// attributed amounts existed.
		i = indexByID(obs, p.AppliedTo)
		if i < 0 || !containsID(obs[i].Payments, p.ID) {
			return false
		}
	}
	ob := &obs[i]

	attributed, ok := ob.Applied[p.ID]
	if !ok {
		attributed = p.Amount
	}

	ob.Paid = ob.Paid.Sub(attributed)
	if ob.Paid.IsNegative() {
		ob.Paid = decimal.Zero
	}
	ob.Remaining = ob.Amount.Sub(ob.Paid)

	ob.Payments = removeID(ob.Payments, p.ID)
	delete(ob.Applied, p.ID)

	ob.Status = StatusOf(*ob, today)
	return true
}

// indexByID finds an obligation by its stable id. Empty id never matches.
func indexByID(obs []Obligation, id string) int {
	if id == "" {
		return -1
	}
	for i := range obs {
		if obs[i].ID == id {
			return i
		}
	}
	return -1
}

// indexHolding finds the obligation with an attributed amount for the
// payment id.
func indexHolding(obs []Obligation, paymentID string) int {
	for i := range obs {
		if _, ok := obs[i].Applied[paymentID]; ok {
			return i
		}
	}
	return -1
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
