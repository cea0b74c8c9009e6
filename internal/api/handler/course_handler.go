package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(cs *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: cs}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listCourses)                // GET /api/v1/courses
	r.Get("/{courseSlug}", h.getCourse)      // GET /api/v1/courses/intro-to-go
	r.Put("/{courseSlug}", h.updateCourse)   // owner instructor or admin; checked in service
	r.Delete("/{courseSlug}", h.deleteCourse)

	r.Group(func(instructorRouter chi.Router) {
		instructorRouter.Use(middleware.InstructorOrAdmin)
		instructorRouter.Post("/", h.createCourse) // POST /api/v1/courses
	})
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)
	searchTerm := r.URL.Query().Get("search")
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())

	courses, total, err := h.courseService.ListCourses(r.Context(), page, pageSize, searchTerm, userRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	type PaginatedCoursesResponse struct {
		Courses  []model.Course `json:"courses"`
		Total    int            `json:"total"`
		Page     int            `json:"page"`
		PageSize int            `json:"page_size"`
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedCoursesResponse{
		Courses:  courses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	courseSlug := chi.URLParam(r, "courseSlug")
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())

	course, err := h.courseService.GetCourse(r.Context(), courseSlug, userRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	courseSlug := chi.URLParam(r, "courseSlug")

	var req service.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	course, err := h.courseService.UpdateCourse(r.Context(), courseSlug, userID, userRole, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	userRole, _ := middleware.GetUserRoleFromContext(r.Context())
	if userRole != model.RoleAdmin {
		common.RespondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), chi.URLParam(r, "courseSlug")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

// paginationParams reads page/pageSize query params with the usual clamping.
func paginationParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 || pageSize > config.AppConfig.MaxPageSize {
		pageSize = config.AppConfig.DefaultPageSize
	}
	return page, pageSize
}
