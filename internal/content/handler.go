package content

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/hannalund/shop-backend/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing post slug")
		return
	}

	post, err := h.repo.GetBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get post", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if post == nil {
		h.writeError(w, http.StatusNotFound, "post not found")
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var post domain.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post.Slug = strings.ToLower(strings.TrimSpace(post.Slug))
	if post.Slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing post slug")
		return
	}

	if err := h.repo.Create(r.Context(), &post); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			h.writeError(w, http.StatusConflict, "post already exists")
			return
		}
		h.logger.Error("failed to create post", "error", err, "slug", post.Slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("post created", "slug", post.Slug)
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing post slug")
		return
	}

	var post domain.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	post.Slug = slug

	found, err := h.repo.Update(r.Context(), &post)
	if err != nil {
		h.logger.Error("failed to update post", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !found {
		h.writeError(w, http.StatusNotFound, "post not found")
		return
	}

	h.logger.Info("post updated", "slug", slug)
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing post slug")
		return
	}

	found, err := h.repo.Delete(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to delete post", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !found {
		h.writeError(w, http.StatusNotFound, "post not found")
		return
	}

	h.logger.Info("post deleted", "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
