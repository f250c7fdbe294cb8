package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler exposes booking and the appointment queues over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Book handles POST /appointments requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), sess, req)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, ErrDoctorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidType):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("booking failed", "error", err)
		http.Error(w, "booking failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

// ListMine handles GET /appointments requests for the signed-in patient.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	list, err := h.svc.ListForPatient(r.Context(), sess)
	if errors.Is(err, ErrUnauthenticated) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// ListForDoctor handles GET /doctors/{doctorID}/appointments requests,
// optionally narrowed by a "status" query.
func (h *Handler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	list, err := h.svc.ListForDoctor(r.Context(), doctorID, r.URL.Query().Get("status"))
	if errors.Is(err, ErrInvalidStatus) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to list doctor queue", "doctor_id", doctorID, "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{appointmentID}/status requests.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.UpdateStatus(r.Context(), sess, id, req.Status)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("status change failed", "appointment_id", id, "error", err)
		http.Error(w, "status change failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}
