/*
delinquency.go - Aggregate overdue metrics and severity classification

PURPOSE:
  Pure derived computation over one client's schedule for dashboards and
  collection lists. Nothing here is stored; severity is recomputed on
  every read from the obligations' derived statuses.

SEVERITY TIERS:
  critical  3+ overdue obligations, or 90+ days behind
  moderate  exactly 2 overdue, or 30-89 days behind (and not critical)
  mild      any other client with at least one overdue obligation
  none      nothing overdue
*/
package schedule

import "github.com/shopspring/decimal"

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// Delinquency aggregates a client's overdue obligations as of a date.
type Delinquency struct {
	OverdueCount  int             `json:"count"`
	OverdueAmount decimal.Decimal `json:"amount"`
	DaysOverdue   int             `json:"days"` // max across overdue obligations
	Severity      Severity        `json:"severity"`
}

// Summarize computes the delinquency aggregate for a schedule as of today.
// Statuses are derived in place, so the schedule need not be refreshed
// beforehand.
func Summarize(obs []Obligation, today Date) Delinquency {
	d := Delinquency{OverdueAmount: decimal.Zero, Severity: SeverityNone}
	for i := range obs {
		if StatusOf(obs[i], today) != StatusOverdue {
			continue
		}
		d.OverdueCount++
		d.OverdueAmount = d.OverdueAmount.Add(ClampedRemaining(obs[i]))
		if days := DaysBetween(obs[i].DueDate, today); days > d.DaysOverdue {
			d.DaysOverdue = days
		}
	}
	d.Severity = classify(d.OverdueCount, d.DaysOverdue)
	return d
}

func classify(count, days int) Severity {
	switch {
	case count == 0:
		return SeverityNone
	case count >= 3 || days >= 90:
		return SeverityCritical
	case count == 2 || days >= 30:
		return SeverityModerate
	default:
		return SeverityMild
	}
}
