/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the REST endpoints. Handlers orchestrate: decode the
  request, run the schedule engine, persist through the store, and
  project the result into DTOs. All status is derived at read time;
  writes go through Store.UpdateClient so a client's schedule is only
  ever mutated under the store's write lock.

ENDPOINTS:
  Clients:
    POST   /api/clients                      - Create client, generate schedule
    GET    /api/clients                      - List clients
    GET    /api/clients/{id}                 - Get one client
    PUT    /api/clients/{id}                 - Update client, reconcile schedule
    DELETE /api/clients/{id}                 - Delete client

  Schedule:
    GET    /api/clients/{id}/schedule        - Obligations with derived status
    GET    /api/clients/{id}/delinquency     - Per-client overdue summary
    GET    /api/delinquency                  - Dashboard of delinquent clients

  Payments:
    POST   /api/clients/{id}/payments        - Record payment, apply to schedule
    GET    /api/clients/{id}/payments        - List payments, newest first
    PUT    /api/payments/{id}                - Edit payment (reverse then reapply)
    DELETE /api/payments/{id}                - Delete payment (reverse first)

  Misc:
    GET    /api/health                       - Health check

SEE ALSO:
  - dto.go: Request/response shapes
  - schedule/: The derivation engine handlers delegate to
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
)

// Handler holds the dependencies shared by all endpoints. Now is
// injectable so tests can pin the calendar.
type Handler struct {
	Store store.Store
	Log   *logrus.Logger
	Now   func() schedule.Date
}

// NewHandler wires a handler with the real clock.
func NewHandler(s store.Store, log *logrus.Logger) *Handler {
	return &Handler{Store: s, Log: log, Now: schedule.Today}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// CreateClient validates the terms, generates the obligation schedule
// and persists the new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if !schedule.ValidateCustomSchedule(req.Terms) {
		writeError(w, http.StatusUnprocessableEntity, "custom schedule amounts do not sum to total balance", nil)
		return
	}

	obs := schedule.Generate(req.Terms)
	c := store.Client{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Phone:    req.Phone,
		Vehicle:  req.Vehicle,
		Terms:    req.Terms,
		Schedule: obs,
		Counters: schedule.RecomputeCounters(obs),
	}
	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save client", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"client_id":   c.ID,
		"obligations": len(obs),
	}).Info("client created")

	saved, err := h.Store.GetClient(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(saved))
}

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = toClientDTO(&clients[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns one client by id.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(c))
}

// UpdateClient updates descriptive fields and, when the loan terms
// changed shape, regenerates the schedule carrying payment history over.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !schedule.ValidateCustomSchedule(req.Terms) {
		writeError(w, http.StatusUnprocessableEntity, "custom schedule amounts do not sum to total balance", nil)
		return
	}

	id := chi.URLParam(r, "id")
	regenerated := false
	c, err := h.Store.UpdateClient(r.Context(), id, func(c *store.Client) error {
		if req.Name != "" {
			c.Name = req.Name
		}
		c.Phone = req.Phone
		c.Vehicle = req.Vehicle
		if schedule.TermsChanged(c.Terms, req.Terms) {
			c.Schedule = schedule.Regenerate(c.Schedule, req.Terms)
			regenerated = true
		}
		c.Terms = req.Terms
		c.Counters = schedule.RecomputeCounters(c.Schedule)
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"client_id":   id,
		"regenerated": regenerated,
	}).Info("client updated")
	writeJSON(w, http.StatusOK, toClientDTO(c))
}

// DeleteClient removes a client. Payment rows stay for audit.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteClient(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	h.Log.WithField("client_id", id).Info("client deleted")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the client's obligations with status derived as of
// today, sorted by due date, plus the overdue summary.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	today := h.Now()
	writeJSON(w, http.StatusOK, ScheduleResponse{
		ClientID:    c.ID,
		AsOf:        today.String(),
		Obligations: toObligationDTOs(c.Schedule, today),
		Delinquency: schedule.Summarize(c.Schedule, today),
	})
}

// GetDelinquency returns the overdue summary for one client.
func (h *Handler) GetDelinquency(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule.Summarize(c.Schedule, h.Now()))
}

// ListDelinquency returns every client with at least one overdue
// obligation, worst first.
func (h *Handler) ListDelinquency(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list clients", err)
		return
	}

	today := h.Now()
	rows := make([]DelinquentClientDTO, 0)
	for i := range clients {
		d := schedule.Summarize(clients[i].Schedule, today)
		if d.Severity == schedule.SeverityNone {
			continue
		}
		rows = append(rows, DelinquentClientDTO{
			ClientID:    clients[i].ID,
			Name:        clients[i].Name,
			Phone:       clients[i].Phone,
			Vehicle:     clients[i].Vehicle,
			Delinquency: d,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := severityRank(rows[i].Delinquency.Severity), severityRank(rows[j].Delinquency.Severity)
		if ri != rj {
			return ri > rj
		}
		return rows[i].Delinquency.DaysOverdue > rows[j].Delinquency.DaysOverdue
	})
	writeJSON(w, http.StatusOK, rows)
}

func severityRank(s schedule.Severity) int {
	switch s {
	case schedule.SeverityCritical:
		return 3
	case schedule.SeverityModerate:
		return 2
	case schedule.SeverityMild:
		return 1
	default:
		return 0
	}
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CreatePayment records a payment and, when it targets an obligation,
// applies it to the client's schedule. A payment with no target is a
// quick payment: stored for the ledger, schedule untouched.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Amount.LessThanOrEqual(decimalZero) {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	clientID := chi.URLParam(r, "id")
	rec := schedule.PaymentRecord{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Amount:    req.Amount,
		Date:      req.Date,
		Method:    req.Method,
		Type:      req.Type,
		AppliedTo: req.AppliedTo,
		Notes:     req.Notes,
	}
	if rec.Date.IsZero() {
		rec.Date = h.Now()
	}

	var result schedule.ApplyResult
	_, err := h.Store.UpdateClient(r.Context(), clientID, func(c *store.Client) error {
		result = schedule.Apply(c.Schedule, rec, h.Now())
		c.Counters = schedule.RecomputeCounters(c.Schedule)
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.SavePayment(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save payment", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"client_id":  clientID,
		"payment_id": rec.ID,
		"amount":     rec.Amount.String(),
		"applied":    result.Applied,
		"partial":    result.Partial,
	}).Info("payment recorded")
	writeJSON(w, http.StatusCreated, PaymentDTO{
		PaymentRecord: rec,
		Applied:       result.Applied,
		Partial:       result.Partial,
	})
}

// ListPayments returns a client's payments, newest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	if _, err := h.Store.GetClient(r.Context(), clientID); err != nil {
		writeStoreError(w, err)
		return
	}
	payments, err := h.Store.ListPayments(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// UpdatePayment edits a payment in two steps: reverse the old record
// off the schedule by its attributed amount, then apply the new one.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Amount.LessThanOrEqual(decimalZero) {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	old, err := h.Store.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	rec := schedule.PaymentRecord{
		ID:        old.ID,
		ClientID:  old.ClientID,
		Amount:    req.Amount,
		Date:      req.Date,
		Method:    req.Method,
		Type:      req.Type,
		AppliedTo: req.AppliedTo,
		Notes:     req.Notes,
	}
	if rec.Date.IsZero() {
		rec.Date = old.Date
	}

	var result schedule.ApplyResult
	_, err = h.Store.UpdateClient(r.Context(), old.ClientID, func(c *store.Client) error {
		schedule.Reverse(c.Schedule, *old, h.Now())
		result = schedule.Apply(c.Schedule, rec, h.Now())
		c.Counters = schedule.RecomputeCounters(c.Schedule)
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.SavePayment(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save payment", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"payment_id": rec.ID,
		"amount":     rec.Amount.String(),
	}).Info("payment updated")
	writeJSON(w, http.StatusOK, PaymentDTO{
		PaymentRecord: rec,
		Applied:       result.Applied,
		Partial:       result.Partial,
	})
}

// DeletePayment removes a payment, reversing its effect on the schedule
// first so paid amounts stay consistent with the ledger.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	_, err = h.Store.UpdateClient(r.Context(), p.ClientID, func(c *store.Client) error {
		schedule.Reverse(c.Schedule, *p, h.Now())
		c.Counters = schedule.RecomputeCounters(c.Schedule)
		return nil
	})
	if err != nil && !store.IsNotFound(err) {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.DeletePayment(r.Context(), p.ID); err != nil {
		writeStoreError(w, err)
		return
	}

	h.Log.WithField("payment_id", p.ID).Info("payment deleted")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MISC
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

var decimalZero = schedule.MustParseMoney("0")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "storage error", err)
}
