package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Handler exposes the community board over HTTP.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a community handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /community/posts requests with an optional "term"
// search query.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.List(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		http.Error(w, "failed to list posts", http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(posts)
}

// Create handles POST /community/posts requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.repo.Create(r.Context(), sess, &req)
	if errors.Is(err, ErrInvalidTitle) || errors.Is(err, ErrInvalidContent) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to create post", "error", err)
		http.Error(w, "failed to create post", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}

func postID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
}

type commentRequest struct {
	Content string `json:"content"`
}

// Comment handles POST /community/posts/{postID}/comments requests.
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	id, err := postID(r)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.repo.AddComment(r.Context(), id, sess, req.Content)
	switch {
	case errors.Is(err, ErrPostNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidComment):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to add comment", "post_id", id, "error", err)
		http.Error(w, "failed to add comment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// Like handles POST /community/posts/{postID}/likes requests.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := h.repo.Like(r.Context(), id)
	if errors.Is(err, ErrPostNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to like post", "post_id", id, "error", err)
		http.Error(w, "failed to like post", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}
