package blooddonation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler exposes blood donation over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a blood donation handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterDonor handles POST /blood/donors requests.
func (h *Handler) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	var req RegisterDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	donor, err := h.svc.RegisterDonor(r.Context(), sess, &req)
	if errors.Is(err, ErrInvalidBloodType) || errors.Is(err, ErrInvalidName) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("donor registration failed", "error", err)
		http.Error(w, "donor registration failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(donor)
}

// ListDonors handles GET /blood/donors requests with an optional
// "blood_type" query.
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.svc.ListDonors(r.Context(), r.URL.Query().Get("blood_type"))
	if errors.Is(err, ErrInvalidBloodType) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to list donors", "error", err)
		http.Error(w, "failed to list donors", http.StatusInternalServerError)
		return
	}
	if donors == nil {
		donors = []Donor{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(donors)
}

// ListCenters handles GET /blood/centers requests.
func (h *Handler) ListCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.svc.ListCenters(r.Context())
	if err != nil {
		h.logger.Error("failed to list centers", "error", err)
		http.Error(w, "failed to list centers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(centers)
}

// ListRequests handles GET /blood/requests requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.ListRequests(r.Context())
	if err != nil {
		h.logger.Error("failed to list blood requests", "error", err)
		http.Error(w, "failed to list blood requests", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// NotifyMe handles POST /blood/requests/{requestID}/notify requests.
func (h *Handler) NotifyMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	request, err := h.svc.NotifyMe(r.Context(), sess, id)
	if errors.Is(err, ErrRequestNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("notify-me failed", "request_id", id, "error", err)
		http.Error(w, "notify-me failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}
