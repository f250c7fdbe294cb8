package doctors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler handles HTTP requests for doctors
type Handler struct {
	repo     Repository
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewHandler creates a new doctors handler
func NewHandler(repo Repository, notifier notify.Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

func (h *Handler) notifyFailure(r *http.Request, title, description string) {
	if h.notifier == nil {
		return
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		h.notifier.Publish(r.Context(), sess.IdentityID, notify.Destructive(title, description))
	}
}

// List handles GET /doctors requests; a non-empty "term" query switches to
// substring search across name, specialty, and hospital.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []Doctor
		err  error
	)
	if term := r.URL.Query().Get("term"); term != "" {
		list, err = h.repo.Search(r.Context(), term)
	} else {
		list, err = h.repo.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Doctor{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Get handles GET /doctors/{doctorID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrDoctorNotFound) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get doctor", "error", err, "doctor_id", id)
		http.Error(w, "failed to get doctor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// Create handles POST /doctors requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create doctor", "error", err)
		h.notifyFailure(r, "Registration failed", "The doctor profile could not be created")
		status := http.StatusBadGateway
		if errors.Is(err, ErrInvalidName) || errors.Is(err, ErrInvalidSpecialty) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.logger.Info("doctor created", "doctor_id", doc.ID, "name", doc.Name)
	if sess, ok := session.FromContext(r.Context()); ok && h.notifier != nil {
		h.notifier.Publish(r.Context(), sess.IdentityID,
			notify.Info("Doctor registered", fmt.Sprintf("%s has been added to the directory", doc.Name)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

// Update handles PATCH /doctors/{doctorID} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Update(r.Context(), id, &req)
	if errors.Is(err, ErrDoctorNotFound) {
		h.notifyFailure(r, "Update failed", "The doctor profile no longer exists")
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update doctor", "error", err, "doctor_id", id)
		h.notifyFailure(r, "Update failed", "The doctor profile could not be updated")
		http.Error(w, "failed to update doctor", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
