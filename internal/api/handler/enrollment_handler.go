package handler

import (
	"encoding/json"
	"net/http"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"

	"github.com/go-chi/chi/v5"
)

type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

func NewEnrollmentHandler(es *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: es}
}

func (h *EnrollmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.selfEnroll)              // POST /api/v1/enroll
	r.Post("/bulk", h.bulkEnroll)          // POST /api/v1/enroll/bulk
	r.Get("/me", h.listMine)               // GET  /api/v1/enroll/me
	r.Delete("/{enrollmentID}", h.unenroll)
}

// Roster mounts under /courses/{courseSlug}/roster.
func (h *EnrollmentHandler) Roster(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())
	courseSlug := chi.URLParam(r, "courseSlug")

	roster, err := h.enrollmentService.Roster(r.Context(), courseSlug, callerID, callerRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, roster)
}

func (h *EnrollmentHandler) selfEnroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	enrollment, err := h.enrollmentService.SelfEnroll(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) bulkEnroll(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())

	var req service.BulkEnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	enrollments, err := h.enrollmentService.BulkEnroll(r.Context(), callerID, callerRole, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, enrollments)
}

func (h *EnrollmentHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	enrollments, err := h.enrollmentService.ListMine(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, enrollments)
}

func (h *EnrollmentHandler) unenroll(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())
	enrollmentID := chi.URLParam(r, "enrollmentID")

	if err := h.enrollmentService.Unenroll(r.Context(), enrollmentID, callerID, callerRole); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "enrollment removed"})
}
