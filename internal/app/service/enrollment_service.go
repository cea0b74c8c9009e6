package service

import (
	"context"
	"database/sql"
	"errors"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

type EnrollmentService struct {
	enrollRepo repository.EnrollmentRepository
	courseRepo repository.CourseRepository
	userRepo   repository.UserRepository
	analytics  *AnalyticsService
	db         *sql.DB // For transactions
}

func NewEnrollmentService(
	enrollRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	analytics *AnalyticsService,
	db *sql.DB,
) *EnrollmentService {
	return &EnrollmentService{
		enrollRepo: enrollRepo,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		analytics:  analytics,
		db:         db,
	}
}

type EnrollRequest struct {
	CourseID string `json:"course_id"`
}

type BulkEnrollRequest struct {
	CourseID string   `json:"course_id"`
	UserIDs  []string `json:"user_ids"`
	Role     string   `json:"role"`
}

// SelfEnroll enrolls the caller into a course as a student. Duplicate pairs
// are rejected by the database's unique constraint.
func (s *EnrollmentService) SelfEnroll(ctx context.Context, userID string, req EnrollRequest) (*model.Enrollment, error) {
	if req.CourseID == "" {
		return nil, common.Errorf("course_id is required: %w", common.ErrBadRequest)
	}

	course, err := s.courseRepo.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.IsArchived {
		return nil, common.Errorf("course is archived: %w", common.ErrForbidden)
	}
	if course.Capacity != nil && course.EnrolledCount >= *course.Capacity {
		return nil, common.Errorf("course is full: %w", common.ErrConflict)
	}

	enrollment := &model.Enrollment{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: req.CourseID,
		Role:     model.RoleStudent,
	}
	if err := s.enrollRepo.Create(ctx, nil, enrollment); err != nil {
		return nil, err
	}

	s.analytics.Increment(ctx, model.MetricEnrollments)
	return enrollment, nil
}

// BulkEnroll inserts all requested enrollments in one transaction.
// All-or-nothing: a single duplicate or unknown user aborts the batch.
func (s *EnrollmentService) BulkEnroll(ctx context.Context, callerID, callerRole string, req BulkEnrollRequest) ([]model.Enrollment, error) {
	if req.CourseID == "" || len(req.UserIDs) == 0 {
		return nil, common.Errorf("course_id and user_ids are required: %w", common.ErrBadRequest)
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role != model.RoleStudent && req.Role != model.RoleInstructor {
		return nil, common.Errorf("role must be student or instructor: %w", common.ErrValidation)
	}

	if _, err := s.courseRepo.FindByID(ctx, req.CourseID); err != nil {
		return nil, err
	}
	if err := s.requireCourseInstructor(ctx, req.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	// Resolve users up front so a typo'd ID fails with a useful message
	// instead of a foreign key violation.
	for _, userID := range req.UserIDs {
		if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.Errorf("user %s does not exist: %w", userID, common.ErrBadRequest)
			}
			return nil, err
		}
	}

	enrollments := make([]model.Enrollment, 0, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		enrollments = append(enrollments, model.Enrollment{
			ID:       uuid.NewString(),
			UserID:   userID,
			CourseID: req.CourseID,
			Role:     req.Role,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.enrollRepo.CreateBatch(ctx, tx, enrollments); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	for range enrollments {
		s.analytics.Increment(ctx, model.MetricEnrollments)
	}
	return enrollments, nil
}

func (s *EnrollmentService) ListMine(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return s.enrollRepo.ListByUser(ctx, userID)
}

func (s *EnrollmentService) Roster(ctx context.Context, courseSlug, callerID, callerRole string) ([]model.Enrollment, error) {
	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseInstructor(ctx, course.ID, callerID, callerRole); err != nil {
		return nil, err
	}
	return s.enrollRepo.ListByCourse(ctx, course.ID)
}

// Unenroll allows the enrolled user themselves, the course instructor or an
// admin to remove an enrollment.
func (s *EnrollmentService) Unenroll(ctx context.Context, enrollmentID, callerID, callerRole string) error {
	enrollment, err := s.enrollRepo.FindByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.UserID != callerID {
		if err := s.requireCourseInstructor(ctx, enrollment.CourseID, callerID, callerRole); err != nil {
			return err
		}
	}
	return s.enrollRepo.Delete(ctx, enrollmentID)
}

func (s *EnrollmentService) requireCourseInstructor(ctx context.Context, courseID, userID, userRole string) error {
	if userRole == model.RoleAdmin {
		return nil
	}
	enrollment, err := s.enrollRepo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrForbidden
		}
		return err
	}
	if enrollment.Role != model.RoleInstructor {
		return common.ErrForbidden
	}
	return nil
}
