package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler serves the admin panel endpoints.
type Handler struct {
	users    UserDirectory
	tickets  *TicketStore
	stats    StatsSource
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewHandler creates the admin handler. A nil gatherer falls back to the
// process-default registry.
func NewHandler(users UserDirectory, tickets *TicketStore, stats StatsSource, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{users: users, tickets: tickets, stats: stats, gatherer: gatherer, logger: logger}
}

// ListUsers handles GET /admin/users; a non-empty "term" query searches
// name and email.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var (
		profiles []session.Profile
		err      error
	)
	if term := r.URL.Query().Get("term"); term != "" {
		profiles, err = h.users.Search(r.Context(), term)
	} else {
		profiles, err = h.users.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []session.Profile{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profiles)
}

// ListTickets handles GET /admin/tickets with an optional "status" query.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.List(r.Context(), r.URL.Query().Get("status"))
	if errors.Is(err, ErrInvalidTicketStatus) {
		http.Error(w, "invalid ticket status", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to list tickets", "error", err)
		http.Error(w, "failed to list tickets", http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []Ticket{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tickets)
}

// CreateTicket handles POST /admin/tickets.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req Ticket
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		req.IdentityID = sess.IdentityID
		if req.FromName == "" {
			req.FromName = sess.DisplayName
		}
		if req.FromEmail == "" {
			req.FromEmail = sess.Email
		}
	}

	ticket, err := h.tickets.Create(r.Context(), req)
	if errors.Is(err, ErrInvalidSubject) {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to create ticket", "error", err)
		http.Error(w, "failed to create ticket", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ticket)
}

// TransitionTicket handles PATCH /admin/tickets/{ticketID}/status.
func (h *Handler) TransitionTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := h.tickets.Transition(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrTicketNotFound):
		http.Error(w, "ticket not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidTicketStatus):
		http.Error(w, "invalid ticket status", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "status transition not allowed", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("failed to transition ticket", "error", err, "ticket_id", id)
		http.Error(w, "failed to update ticket", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ticket)
}

// GetStats handles GET /admin/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Counts(r.Context())
	if err != nil {
		h.logger.Error("failed to build stats", "error", err)
		http.Error(w, "failed to build stats", http.StatusInternalServerError)
		return
	}
	stats.RequestLatency = snapshotRequestLatency(h.gatherer)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
