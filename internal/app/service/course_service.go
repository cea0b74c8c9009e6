package service

import (
	"context"
	"database/sql"
	"errors"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CourseService struct {
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
	db         *sql.DB // For transactions
}

func NewCourseService(courseRepo repository.CourseRepository, enrollRepo repository.EnrollmentRepository, db *sql.DB) *CourseService {
	return &CourseService{courseRepo: courseRepo, enrollRepo: enrollRepo, db: db}
}

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Capacity    *int   `json:"capacity,omitempty"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

// CreateCourse creates the course and enrolls the creator as its instructor
// in one transaction.
func (s *CourseService) CreateCourse(ctx context.Context, userID string, req CreateCourseRequest) (*model.Course, error) {
	if req.Title == "" || req.Description == "" {
		return nil, common.Errorf("title and description are required: %w", common.ErrBadRequest)
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, common.Errorf("capacity must be positive: %w", common.ErrValidation)
	}

	course := &model.Course{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Capacity:    req.Capacity,
		CreatedByID: &userID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.courseRepo.Create(ctx, tx, course); err != nil {
		return nil, common.Errorf("failed to create course: %w", err)
	}

	enrollment := &model.Enrollment{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: course.ID,
		Role:     model.RoleInstructor,
	}
	if err := s.enrollRepo.Create(ctx, tx, enrollment); err != nil {
		return nil, common.Errorf("failed to enroll creator as instructor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	course.EnrolledCount = 1
	return course, nil
}

func (s *CourseService) GetCourse(ctx context.Context, courseSlug, userRole string) (*model.Course, error) {
	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	// Archived courses are hidden from students.
	if course.IsArchived && userRole == model.RoleStudent {
		return nil, common.ErrNotFound
	}
	return course, nil
}

func (s *CourseService) ListCourses(ctx context.Context, page, pageSize int, searchTerm, userRole string) ([]model.Course, int, error) {
	limit := pageSize
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	includeArchived := userRole == model.RoleAdmin || userRole == model.RoleInstructor
	return s.courseRepo.List(ctx, limit, offset, searchTerm, includeArchived)
}

// UpdateCourse requires the caller to be the course's instructor or an admin.
func (s *CourseService) UpdateCourse(ctx context.Context, courseSlug, userID, userRole string, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}

	if err := s.requireCourseInstructor(ctx, course.ID, userID, userRole); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, common.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		course.Title = *req.Title
		course.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, common.Errorf("capacity must be positive: %w", common.ErrValidation)
		}
		course.Capacity = req.Capacity
	}
	if req.IsArchived != nil {
		course.IsArchived = *req.IsArchived
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, courseSlug string) error {
	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return err
	}
	// Cascade to posts, enrollments and submissions is handled by FKs.
	return s.courseRepo.Delete(ctx, course.ID)
}

// requireCourseInstructor allows admins and users enrolled in the course
// with the instructor role.
func (s *CourseService) requireCourseInstructor(ctx context.Context, courseID, userID, userRole string) error {
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
