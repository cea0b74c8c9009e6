package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classhub/internal/api"
	"classhub/internal/app/service"
	"classhub/internal/app/worker"
	"classhub/internal/common/security"
	"classhub/internal/domain/repository"
	"classhub/internal/platform/cache"
	"classhub/internal/platform/config"
	"classhub/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	courseRepo := repository.NewPgCourseRepository(database.DB)
	postRepo := repository.NewPgPostRepository(database.DB)
	enrollmentRepo := repository.NewPgEnrollmentRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	tokenRepo := repository.NewPgTokenRepository(database.DB)
	metricRepo := repository.NewPgMetricRepository(database.DB)

	// 6. Initialize Services
	tokenService := service.NewTokenService(tokenRepo, cache.RDB)
	analyticsService := service.NewAnalyticsService(metricRepo, cache.RDB)
	authService := service.NewAuthService(userRepo, tokenService, analyticsService)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, database.DB)
	postService := service.NewPostService(postRepo, courseRepo, enrollmentRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, analyticsService, database.DB)
	submissionService := service.NewSubmissionService(submissionRepo, postRepo, enrollmentRepo, analyticsService)
	adminService := service.NewAdminService(userRepo, courseRepo, enrollmentRepo, submissionRepo, analyticsService)

	// 7. Initialize Janitor (as a goroutine)
	janitor := worker.NewTokenJanitor(tokenService, analyticsService, config.AppConfig.JanitorInterval)
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		janitor.Start(janitorCtx)
	}()
	fmt.Println("Token janitor started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(
		authService,
		tokenService,
		courseService,
		postService,
		enrollmentService,
		submissionService,
		adminService,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	janitorCancel() // Signal janitor to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	// The janitor does a final metrics flush on cancellation; wait for it
	// before the process exits.
	<-janitorDone

	log.Println("Server and janitor stopped gracefully.")
}
