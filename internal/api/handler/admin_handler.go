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

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(as *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

// RegisterRoutes expects the AdminOnly middleware to already be applied.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Put("/users/{userID}/role", h.updateRole)
	r.Put("/users/{userID}/status", h.updateStatus)
	r.Post("/users/{userID}/reset-password", h.resetPassword)
	r.Delete("/users/{userID}", h.deleteUser)
	r.Get("/dashboard", h.dashboard)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)
	role := r.URL.Query().Get("role")
	status := r.URL.Query().Get("status")
	searchTerm := r.URL.Query().Get("search")

	users, total, err := h.adminService.ListUsers(r.Context(), page, pageSize, role, status, searchTerm)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	type PaginatedUsersResponse struct {
		Users    []model.User `json:"users"`
		Total    int          `json:"total"`
		Page     int          `json:"page"`
		PageSize int          `json:"page_size"`
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedUsersResponse{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *AdminHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.adminService.UpdateUserRole(r.Context(), callerID, userID, req.Role); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.adminService.UpdateUserStatus(r.Context(), callerID, userID, req.Status); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *AdminHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	resp, err := h.adminService.ResetPassword(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := h.adminService.DeleteUser(r.Context(), callerID, userID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
