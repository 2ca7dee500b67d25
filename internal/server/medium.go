package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-personal-site/internal/model"
)

func (h *handler) listMedium(w http.ResponseWriter, r *http.Request) {
	posts := []model.MediumPost{}
	if h.Medium != nil {
		q := r.URL.Query()
		limit := parsePositiveInt(q.Get("limit"), h.MediumLimit)
		posts = h.Medium.ListPosts(r.Context(), limit, parseBool(q.Get("content")))
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *handler) getMedium(w http.ResponseWriter, r *http.Request) {
	var post *model.MediumPost
	if h.Medium != nil {
		post = h.Medium.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"post": post})
}
