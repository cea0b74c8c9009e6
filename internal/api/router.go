package api

import (
	"net/http"
	"time"

	"classhub/internal/api/handler"
	"classhub/internal/api/middleware"
	"classhub/internal/app/service"
	"classhub/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	tokenService *service.TokenService,
	courseService *service.CourseService,
	postService *service.PostService,
	enrollmentService *service.EnrollmentService,
	submissionService *service.SubmissionService,
	adminService *service.AdminService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies token when present, puts claims in context. Validation and
	// denylist rejection happen in middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	courseHandler := handler.NewCourseHandler(courseService)
	postHandler := handler.NewPostHandler(postService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	adminHandler := handler.NewAdminHandler(adminService)

	authenticated := middleware.Authenticator(tokenService)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		v1.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterPublicRoutes(auth)

			// change-password, logout and me stay reachable while the
			// first-login flag still gates the rest of the API.
			auth.Group(func(protected chi.Router) {
				protected.Use(authenticated)
				authHandler.RegisterProtectedRoutes(protected)
			})
		})

		// Everything below requires a live token and a settled password.
		v1.Group(func(app chi.Router) {
			app.Use(authenticated)
			app.Use(middleware.RequirePasswordChanged)

			app.Route("/courses", func(courses chi.Router) {
				courseHandler.RegisterRoutes(courses)
				courses.Route("/{courseSlug}/posts", postHandler.RegisterCourseRoutes)
				courses.Get("/{courseSlug}/roster", enrollmentHandler.Roster)
			})

			app.Route("/posts", func(posts chi.Router) {
				postHandler.RegisterRoutes(posts)
				posts.Route("/{postID}/submissions", submissionHandler.RegisterPostRoutes)
			})

			app.Route("/enroll", enrollmentHandler.RegisterRoutes)
			app.Route("/submissions", submissionHandler.RegisterRoutes)

			app.Route("/admin", func(admin chi.Router) {
				admin.Use(middleware.AdminOnly)
				adminHandler.RegisterRoutes(admin)
			})
		})
	})

	return r
}
