package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-personal-site/internal/blog"
	"go-personal-site/internal/logx"
	"go-personal-site/internal/model"
)

// listOptions 只有管理员才能通过查询参数查看草稿/归档。
func (h *handler) listOptions(r *http.Request) blog.ListOptions {
	if !h.Gate.IsAdmin(r) {
		return blog.ListOptions{}
	}
	q := r.URL.Query()
	return blog.ListOptions{
		IncludeDrafts:   parseBool(q.Get("includeDrafts")),
		IncludeArchived: parseBool(q.Get("includeArchived")),
	}
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.ListPosts(r.Context(), h.listOptions(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// getPost 对管理员展示任意状态的文章，并附带渲染后的 HTML 正文。
func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	opts := blog.ListOptions{}
	if h.Gate.IsAdmin(r) {
		opts = blog.ListOptions{IncludeDrafts: true, IncludeArchived: true}
	}
	post, err := h.Posts.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"), opts)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	body, err := blog.RenderHTML(post.Content)
	if err != nil {
		logx.Warnf("渲染文章失败：slug=%s 错误=%v", post.Slug, err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"post": post, "html": body})
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := h.Posts.AddPost(r.Context(), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"post": post})
}

func (h *handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := h.Posts.UpdatePost(r.Context(), chi.URLParam(r, "slug"), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Posts.DeletePost(r.Context(), chi.URLParam(r, "slug")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) timeline(w http.ResponseWriter, r *http.Request) {
	if h.Timeline == nil {
		respondJSON(w, http.StatusOK, map[string]any{"entries": []model.TimelineEntry{}})
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), h.TimelineLimit)
	entries, err := h.Timeline.Timeline(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
