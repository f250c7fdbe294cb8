package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler exposes the authenticated caller's cart over HTTP.
type Handler struct {
	manager *Manager
	logger  *logging.Logger
}

// NewHandler creates a cart handler.
func NewHandler(manager *Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{manager: manager, logger: logger}
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return "", false
	}
	return sess.IdentityID, true
}

func (h *Handler) respond(w http.ResponseWriter, c Cart) {
	if c.Items == nil {
		c.Items = []Item{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// Get handles GET /cart requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	c, err := h.manager.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "user_id", userID, "error", err)
		http.Error(w, "failed to load cart", http.StatusInternalServerError)
		return
	}
	h.respond(w, c)
}

// Add handles POST /cart/items requests.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := h.manager.Add(r.Context(), userID, item)
	if errors.Is(err, ErrInvalidItem) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to add to cart", "user_id", userID, "error", err)
		http.Error(w, "failed to add to cart", http.StatusInternalServerError)
		return
	}
	h.respond(w, c)
}

// Remove handles DELETE /cart/items/{productID} requests: one unit per
// call, the last unit removes the line.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	c, err := h.manager.Remove(r.Context(), userID, productID)
	if err != nil {
		h.logger.Error("failed to remove from cart", "user_id", userID, "error", err)
		http.Error(w, "failed to remove from cart", http.StatusInternalServerError)
		return
	}
	h.respond(w, c)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity handles PATCH /cart/items/{productID} requests.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := h.manager.UpdateQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to update cart quantity", "user_id", userID, "error", err)
		http.Error(w, "failed to update quantity", http.StatusInternalServerError)
		return
	}
	h.respond(w, c)
}

// Clear handles DELETE /cart requests.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.manager.Clear(r.Context(), userID); err != nil {
		h.logger.Error("failed to clear cart", "user_id", userID, "error", err)
		http.Error(w, "failed to clear cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
