package service

import (
	"context"
	"errors"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	postRepo       repository.PostRepository
	enrollRepo     repository.EnrollmentRepository
	analytics      *AnalyticsService
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	postRepo repository.PostRepository,
	enrollRepo repository.EnrollmentRepository,
	analytics *AnalyticsService,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		postRepo:       postRepo,
		enrollRepo:     enrollRepo,
		analytics:      analytics,
	}
}

type SubmitRequest struct {
	FileURL string  `json:"file_url"`
	Comment *string `json:"comment,omitempty"`
}

// Submit hands in a file against a post. A resubmission by the same user for
// the same post replaces the earlier one.
func (s *SubmissionService) Submit(ctx context.Context, postID, userID string, req SubmitRequest) (*model.Submission, error) {
	if req.FileURL == "" {
		return nil, common.Errorf("file_url is required: %w", common.ErrBadRequest)
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	// Only students enrolled in the post's course may submit.
	enrollment, err := s.enrollRepo.FindByUserAndCourse(ctx, userID, post.CourseID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, err
	}
	if enrollment.Role != model.RoleStudent {
		return nil, common.Errorf("only students can submit: %w", common.ErrForbidden)
	}

	submission := &model.Submission{
		ID:      uuid.NewString(),
		PostID:  postID,
		UserID:  userID,
		FileURL: req.FileURL,
		Comment: req.Comment,
	}
	if err := s.submissionRepo.Upsert(ctx, submission); err != nil {
		return nil, err
	}

	s.analytics.Increment(ctx, model.MetricSubmissions)
	return submission, nil
}

// ListByPost is for graders: the course instructor or an admin.
func (s *SubmissionService) ListByPost(ctx context.Context, postID, callerID, callerRole string) ([]model.Submission, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if callerRole != model.RoleAdmin {
		enrollment, err := s.enrollRepo.FindByUserAndCourse(ctx, callerID, post.CourseID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrForbidden
			}
			return nil, err
		}
		if enrollment.Role != model.RoleInstructor {
			return nil, common.ErrForbidden
		}
	}

	return s.submissionRepo.ListByPost(ctx, postID)
}

func (s *SubmissionService) ListMine(ctx context.Context, userID string) ([]model.Submission, error) {
	return s.submissionRepo.ListByUser(ctx, userID)
}
