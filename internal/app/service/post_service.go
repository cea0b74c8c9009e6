package service

import (
	"context"
	"errors"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

type PostService struct {
	postRepo   repository.PostRepository
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
}

func NewPostService(postRepo repository.PostRepository, courseRepo repository.CourseRepository, enrollRepo repository.EnrollmentRepository) *PostService {
	return &PostService{postRepo: postRepo, courseRepo: courseRepo, enrollRepo: enrollRepo}
}

type CreatePostRequest struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	FileURL  *string `json:"file_url,omitempty"`
	LinkURL  *string `json:"link_url,omitempty"`
	IsPinned bool    `json:"is_pinned"`
}

type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	FileURL  *string `json:"file_url,omitempty"`
	LinkURL  *string `json:"link_url,omitempty"`
	IsPinned *bool   `json:"is_pinned,omitempty"`
}

func (s *PostService) CreatePost(ctx context.Context, courseSlug, userID, userRole string, req CreatePostRequest) (*model.Post, error) {
	if req.Title == "" || req.Body == "" {
		return nil, common.Errorf("title and body are required: %w", common.ErrBadRequest)
	}

	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if err := s.requireInstructor(ctx, course.ID, userID, userRole); err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:       uuid.NewString(),
		CourseID: course.ID,
		AuthorID: userID,
		Title:    req.Title,
		Body:     req.Body,
		FileURL:  req.FileURL,
		LinkURL:  req.LinkURL,
		IsPinned: req.IsPinned,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts requires the caller to be enrolled in the course, unless admin.
func (s *PostService) ListPosts(ctx context.Context, courseSlug, userID, userRole string, page, pageSize int) ([]model.Post, int, error) {
	course, err := s.courseRepo.FindBySlug(ctx, courseSlug)
	if err != nil {
		return nil, 0, err
	}

	if userRole != model.RoleAdmin {
		if _, err := s.enrollRepo.FindByUserAndCourse(ctx, userID, course.ID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, 0, common.ErrForbidden
			}
			return nil, 0, err
		}
	}

	limit := pageSize
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.postRepo.ListByCourse(ctx, course.ID, limit, offset)
}

func (s *PostService) UpdatePost(ctx context.Context, postID, userID, userRole string, req UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAuthorOrInstructor(ctx, post, userID, userRole); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, common.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.FileURL != nil {
		post.FileURL = req.FileURL
	}
	if req.LinkURL != nil {
		post.LinkURL = req.LinkURL
	}
	if req.IsPinned != nil {
		post.IsPinned = *req.IsPinned
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID, userRole string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrInstructor(ctx, post, userID, userRole); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) requireInstructor(ctx context.Context, courseID, userID, userRole string) error {
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

func (s *PostService) requireAuthorOrInstructor(ctx context.Context, post *model.Post, userID, userRole string) error {
	if post.AuthorID == userID {
		return nil
	}
	return s.requireInstructor(ctx, post.CourseID, userID, userRole)
}
