package handler

import (
	"encoding/json"
	"net/http"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"
	"classhub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(ps *service.PostService) *PostHandler {
	return &PostHandler{postService: ps}
}

// RegisterCourseRoutes mounts under /courses/{courseSlug}/posts.
func (h *PostHandler) RegisterCourseRoutes(r chi.Router) {
	r.Get("/", h.listPosts)
	r.Post("/", h.createPost)
}

// RegisterRoutes mounts under /posts for single-post operations.
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Put("/{postID}", h.updatePost)
	r.Delete("/{postID}", h.deletePost)
}

func (h *PostHandler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	courseSlug := chi.URLParam(r, "courseSlug")

	var req service.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	post, err := h.postService.CreatePost(r.Context(), courseSlug, userID, userRole, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	courseSlug := chi.URLParam(r, "courseSlug")
	page, pageSize := paginationParams(r)

	posts, total, err := h.postService.ListPosts(r.Context(), courseSlug, userID, userRole, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	type PaginatedPostsResponse struct {
		Posts    []model.Post `json:"posts"`
		Total    int          `json:"total"`
		Page     int          `json:"page"`
		PageSize int          `json:"page_size"`
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedPostsResponse{
		Posts:    posts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *PostHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	var req service.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	post, err := h.postService.UpdatePost(r.Context(), postID, userID, userRole, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.postService.DeletePost(r.Context(), postID, userID, userRole); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}
