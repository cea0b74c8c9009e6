package service

import (
	"context"
	"fmt"
	"log"

	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"classhub/internal/platform/config"
)

type AdminService struct {
	userRepo       repository.UserRepository
	courseRepo     repository.CourseRepository
	enrollRepo     repository.EnrollmentRepository
	submissionRepo repository.SubmissionRepository
	analytics      *AnalyticsService
}

func NewAdminService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	enrollRepo repository.EnrollmentRepository,
	submissionRepo repository.SubmissionRepository,
	analytics *AnalyticsService,
) *AdminService {
	return &AdminService{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollRepo:     enrollRepo,
		submissionRepo: submissionRepo,
		analytics:      analytics,
	}
}

type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int, role, status, searchTerm string) ([]model.User, int, error) {
	if role != "" && !model.IsValidRole(role) {
		return nil, 0, common.Errorf("unknown role %q: %w", role, common.ErrValidation)
	}
	if status != "" && !model.IsValidStatus(status) {
		return nil, 0, common.Errorf("unknown status %q: %w", status, common.ErrValidation)
	}
	limit := pageSize
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, limit, offset, role, status, searchTerm)
}

// UpdateUserRole changes a user's global role. Admins cannot demote
// themselves, there must always be a way back in.
func (s *AdminService) UpdateUserRole(ctx context.Context, callerID, userID, role string) error {
	if !model.IsValidRole(role) {
		return common.Errorf("unknown role %q: %w", role, common.ErrValidation)
	}
	if callerID == userID && role != model.RoleAdmin {
		return common.Errorf("admins cannot demote themselves: %w", common.ErrBadRequest)
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, callerID, userID, status string) error {
	if !model.IsValidStatus(status) {
		return common.Errorf("unknown status %q: %w", status, common.ErrValidation)
	}
	if callerID == userID && status != model.StatusActive {
		return common.Errorf("admins cannot suspend themselves: %w", common.ErrBadRequest)
	}
	return s.userRepo.UpdateStatus(ctx, userID, status)
}

// ResetPassword sets a temporary password and the first-login flag, so the
// user is forced through a password change at their next login.
func (s *AdminService) ResetPassword(ctx context.Context, userID string) (*ResetPasswordResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	tempPassword, err := security.GenerateTempPassword(config.AppConfig.TempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate temp password: %w", err)
	}
	hashedPassword, err := security.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash temp password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword, true); err != nil {
		return nil, err
	}
	return &ResetPasswordResponse{TempPassword: tempPassword}, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, callerID, userID string) error {
	if callerID == userID {
		return common.Errorf("admins cannot delete themselves: %w", common.ErrBadRequest)
	}
	// Enrollments and submissions cascade via FKs.
	return s.userRepo.Delete(ctx, userID)
}

// Dashboard aggregates counts across all aggregates plus the metric
// counters. A metrics read failure degrades to an empty map rather than
// failing the whole dashboard.
func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	stats.UsersByRole = byRole

	byStatus, err := s.userRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.UsersByStatus = byStatus

	total, archived, err := s.courseRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalCourses = total
	stats.ArchivedCourses = archived

	if stats.TotalEnrollments, err = s.enrollRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSubmissions, err = s.submissionRepo.Count(ctx); err != nil {
		return nil, err
	}

	metrics, err := s.analytics.Snapshot(ctx)
	if err != nil {
		log.Printf("WARN: Failed to read metric counters for dashboard: %v", err)
		metrics = map[string]int64{}
	}
	stats.Metrics = metrics
	return stats, nil
}
