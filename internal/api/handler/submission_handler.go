package handler

import (
	"encoding/json"
	"net/http"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

// RegisterPostRoutes mounts under /posts/{postID}/submissions.
func (h *SubmissionHandler) RegisterPostRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.listByPost)
}

// RegisterRoutes mounts under /submissions.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.listMine)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	postID := chi.URLParam(r, "postID")

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), postID, userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, submission)
}

func (h *SubmissionHandler) listByPost(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	submissions, err := h.submissionService.ListByPost(r.Context(), postID, callerID, callerRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *SubmissionHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	submissions, err := h.submissionService.ListMine(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}
