package products

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler handles HTTP requests for the pharmacy catalog.
type Handler struct {
	repo     Repository
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewHandler creates a new products handler.
func NewHandler(repo Repository, notifier notify.Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// List handles GET /products requests with optional "category" and "term"
// query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Category: r.URL.Query().Get("category"),
		Term:     r.URL.Query().Get("term"),
	}
	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Get handles GET /products/{productID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		http.Error(w, "failed to get product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

// Add handles POST /products requests.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.repo.Add(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to add product", "error", err)
		h.notifyFailure(r, "Product not added", "The catalog entry could not be created")
		status := http.StatusBadGateway
		if errors.Is(err, ErrInvalidName) || errors.Is(err, ErrInvalidPrice) || errors.Is(err, ErrInvalidStock) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.logger.Info("product added", "product_id", product.ID, "name", product.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

type updateStockRequest struct {
	Stock int `json:"stock"`
}

// UpdateStock handles PATCH /products/{productID}/stock requests.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.repo.UpdateStock(r.Context(), id, req.Stock)
	switch {
	case errors.Is(err, ErrProductNotFound):
		h.notifyFailure(r, "Stock update failed", "The product no longer exists")
		http.Error(w, "product not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidStock):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to update stock", "error", err, "product_id", id)
		h.notifyFailure(r, "Stock update failed", "The stock level could not be updated")
		http.Error(w, "failed to update stock", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

func (h *Handler) notifyFailure(r *http.Request, title, description string) {
	if h.notifier == nil {
		return
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		h.notifier.Publish(r.Context(), sess.IdentityID, notify.Destructive(title, description))
	}
}
