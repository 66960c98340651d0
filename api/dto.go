/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  engine's domain model from the external contract. Amounts travel as
  decimal strings, dates as YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/types.go: The domain shapes these views project
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
)

// =============================================================================
// CLIENT TYPES
// =============================================================================

// ClientRequest creates or updates a client. Terms drive schedule
// generation; everything else is descriptive.
type ClientRequest struct {
	Name    string             `json:"name"`
	Phone   string             `json:"phone,omitempty"`
	Vehicle string             `json:"vehicle,omitempty"`
	Terms   schedule.LoanTerms `json:"terms"`
}

// ClientDTO is the stored client plus its derived counters.
type ClientDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Phone     string             `json:"phone,omitempty"`
	Vehicle   string             `json:"vehicle,omitempty"`
	Terms     schedule.LoanTerms `json:"terms"`
	Counters  schedule.Counters  `json:"counters"`
	CreatedAt string             `json:"createdAt,omitempty"`
	UpdatedAt string             `json:"updatedAt,omitempty"`
}

func toClientDTO(c *store.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Vehicle:   c.Vehicle,
		Terms:     c.Terms,
		Counters:  c.Counters,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SCHEDULE VIEW
// =============================================================================

// ObligationDTO is one schedule line as dashboards render it: status
// derived as of today, remaining clamped at zero.
type ObligationDTO struct {
	ID        string          `json:"id"`
	Kind      schedule.Kind   `json:"kind"`
	Sequence  int             `json:"sequence"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   string          `json:"dueDate"`
	Paid      decimal.Decimal `json:"paidAmount"`
	Remaining decimal.Decimal `json:"remainingAmount"`
	Status    schedule.Status `json:"status"`
	Payments  []string        `json:"payments,omitempty"`
}

// ScheduleResponse is a client's full obligation calendar, sorted by due
// date for display.
type ScheduleResponse struct {
	ClientID    string               `json:"clientId"`
	AsOf        string               `json:"asOf"`
	Obligations []ObligationDTO      `json:"obligations"`
	Delinquency schedule.Delinquency `json:"delinquency"`
}

func toObligationDTOs(obs []schedule.Obligation, today schedule.Date) []ObligationDTO {
	view := schedule.CloneSchedule(obs)
	schedule.Refresh(view, today)
	schedule.SortByDueDate(view)

	dtos := make([]ObligationDTO, len(view))
	for i, ob := range view {
		dtos[i] = ObligationDTO{
			ID:        ob.ID,
			Kind:      ob.Kind,
			Sequence:  ob.Sequence,
			Label:     ob.Label,
			Amount:    ob.Amount,
			DueDate:   ob.DueDate.String(),
			Paid:      ob.Paid,
			Remaining: schedule.ClampedRemaining(ob),
			Status:    ob.Status,
			Payments:  ob.Payments,
		}
	}
	return dtos
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// PaymentRequest records or edits a payment. An empty appliedTo makes it
// a quick payment: stored, but not applied to any schedule line.
type PaymentRequest struct {
	Amount    decimal.Decimal      `json:"amount"`
	Date      schedule.Date        `json:"date"`
	Method    string               `json:"method,omitempty"`
	Type      schedule.PaymentType `json:"type"`
	AppliedTo string               `json:"appliedToScheduledPayment,omitempty"`
	Notes     string               `json:"notes,omitempty"`
}

// PaymentDTO is a stored payment plus what applying it did.
type PaymentDTO struct {
	schedule.PaymentRecord
	Applied bool `json:"applied"`
	Partial bool `json:"partial"`
}

// =============================================================================
// DELINQUENCY DASHBOARD
// =============================================================================

// DelinquentClientDTO is one row of the collections dashboard.
type DelinquentClientDTO struct {
	ClientID    string               `json:"clientId"`
	Name        string               `json:"name"`
	Phone       string               `json:"phone,omitempty"`
	Vehicle     string               `json:"vehicle,omitempty"`
	Delinquency schedule.Delinquency `json:"delinquency"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
