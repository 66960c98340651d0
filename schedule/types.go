/*
Package schedule provides the core payment scheduling engine for a
buy-here-pay-here dealership back office.

PURPOSE:
  This package contains the pure domain logic for deriving a client's
  obligation calendar (down payment, plates fee, monthly installments),
  tracking partial payments against each scheduled obligation, computing
  delinquency, and keeping the schedule consistent when loan terms change.

KEY CONCEPTS IN THIS FILE (types.go):
  - LoanTerms: The financing terms a schedule is derived from
  - Obligation: One line item a client owes, with paid/remaining tracking
  - PaymentRecord: A recorded payment, optionally linked to one obligation
  - Status: The five derived obligation states (paid/partial/overdue/...)

DESIGN PRINCIPLES:
  1. Purity: Generation, status, and delinquency are pure functions
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Derived-not-stored: Status is recomputed on every read, never cached
  4. Conditions as data: No panics or errors in normal operation; invalid
     states surface as status strings, validity booleans, clamped numbers

USAGE:
  obs := schedule.Generate(terms)
  schedule.Refresh(obs, schedule.Today())
  summary := schedule.Summarize(obs, schedule.Today())

SEE ALSO:
  - generator.go: Derives the full obligation list from loan terms
  - status.go: Per-obligation status calculation
  - apply.go: Applying and reversing payments against obligations
  - reconcile.go: Regeneration with carry-over when terms change
  - delinquency.go: Aggregate overdue metrics and severity
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// MustParseMoney parses a stored decimal string, returning zero on garbage
// rather than failing a whole record load.
func MustParseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// OBLIGATION KINDS AND STATUS
// =============================================================================

// Kind identifies what an obligation is for.
type Kind string

const (
	KindMonthly     Kind = "monthly"
	KindDownPayment Kind = "downpayment"
	KindPlates      Kind = "plates"
)

// Status is the derived state of an obligation. It is recomputed on every
// read (see status.go) so obligations age from pending to due_soon to
// overdue as calendar time passes, without any write.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusOverdue Status = "overdue"
	StatusDueSoon Status = "due_soon"
	StatusPending Status = "pending"
)

// PaymentType classifies a payment record. It mirrors Kind plus "other"
// for payments not tied to a schedule line.
type PaymentType string

const (
	PaymentMonthly     PaymentType = "monthly"
	PaymentDownPayment PaymentType = "downpayment"
	PaymentPlates      PaymentType = "plates"
	PaymentOther       PaymentType = "other"
)

// =============================================================================
// LOAN TERMS - Input to the Schedule Generator
// =============================================================================

// CustomEntry is one installment in a custom schedule: an explicit amount
// for a given payment number, overriding the equal monthly installment.
type CustomEntry struct {
	Number int             `json:"paymentNumber"`
	Amount decimal.Decimal `json:"amount"`
}

// LoanTerms is the subset of a client record the schedule derives from.
//
// A zero DownPaymentDue or PlatesDue falls back to PaymentStartDate.
// CustomSchedule is only honored when UseCustomSchedule is set.
type LoanTerms struct {
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	MonthlyPayment   decimal.Decimal `json:"monthlyPayment"`
	NumberOfPayments int             `json:"numberOfPayments"`
	PaymentStartDate Date            `json:"paymentStartDate"`

	DownPayment     decimal.Decimal `json:"downPayment"`
	DownPaymentPaid decimal.Decimal `json:"downPaymentPaid"`
	DownPaymentDue  Date            `json:"downPaymentDue,omitempty"`

	PlatesAmount decimal.Decimal `json:"platesAmount"`
	PlatesPaid   decimal.Decimal `json:"platesPaid"`
	PlatesDue    Date            `json:"platesDue,omitempty"`

	UseCustomSchedule bool          `json:"useCustomSchedule"`
	CustomSchedule    []CustomEntry `json:"customSchedule,omitempty"`
}

// =============================================================================
// SCHEDULED OBLIGATION - One line item the client owes
// =============================================================================

// Obligation is a single scheduled line item: a monthly installment, the
// down payment, or the plates fee.
//
// INVARIANT: Remaining = Amount - Paid after every mutation. The raw
// subtraction may go negative if Paid exceeds Amount; display-side callers
// clamp via ClampedRemaining, the applicator never clamps (reversal
// arithmetic needs the raw value).
type Obligation struct {
	ID       string `json:"id"` // stable identity, e.g. "monthly_3", "downpayment_1"
	Kind     Kind   `json:"kind"`
	Sequence int    `json:"sequence"` // payment number for monthly, 0 otherwise
	Label    string `json:"label"`

	Amount    decimal.Decimal `json:"amount"`
	DueDate   Date            `json:"dueDate"`
	Paid      decimal.Decimal `json:"paidAmount"`
	Remaining decimal.Decimal `json:"remainingAmount"`

	Status Status `json:"status"`

	// Payments lists the payment-record ids applied to this obligation.
	// Applied tracks, per payment id, the exact amount attributed here so a
	// reversal subtracts what was applied rather than the payment's current
	// amount (which may have been edited since).
	Payments []string                   `json:"payments,omitempty"`
	Applied  map[string]decimal.Decimal `json:"appliedAmounts,omitempty"`
}

// Clone returns a deep copy of the obligation.
func (o Obligation) Clone() Obligation {
	out := o
	if o.Payments != nil {
		out.Payments = append([]string(nil), o.Payments...)
	}
	if o.Applied != nil {
		out.Applied = make(map[string]decimal.Decimal, len(o.Applied))
		for id, amt := range o.Applied {
			out.Applied[id] = amt
		}
	}
	return out
}

// CloneSchedule deep-copies a whole schedule.
func CloneSchedule(obs []Obligation) []Obligation {
	if obs == nil {
		return nil
	}
	out := make([]Obligation, len(obs))
	for i, o := range obs {
		out[i] = o.Clone()
	}
	return out
}

// =============================================================================
// PAYMENT RECORD - External entity, consumed by the applicator
// =============================================================================

// PaymentRecord is a payment as the persistence layer stores it. The engine
// only reads ID, Amount, and AppliedTo; the rest rides along for callers.
type PaymentRecord struct {
	ID       string          `json:"id"`
	ClientID string          `json:"clientId"`
	Amount   decimal.Decimal `json:"amount"`
	Date     Date            `json:"date"`
	Method   string          `json:"method,omitempty"`
	Type     PaymentType     `json:"type"`

	// AppliedTo links the payment to one scheduled obligation by id.
	// Empty means a quick payment not tied to a schedule line; the
	// applicator no-ops on it.
	AppliedTo string `json:"appliedToScheduledPayment,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// =============================================================================
// DENORMALIZED COUNTERS - Recomputed from the schedule, never hand-updated
// =============================================================================

// Counters are the redundant top-level totals the parent client record
// carries. They mirror the schedule and must be recomputed from it after
// every mutation (see RecomputeCounters) rather than maintained by deltas
// at each call site.
type Counters struct {
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	DownPaymentPaid  decimal.Decimal `json:"downPaymentPaid"`
	PlatesPaid       decimal.Decimal `json:"platesPaid"`
}
