package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type SubmissionRepository interface {
	Upsert(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	ListByPost(ctx context.Context, postID string) ([]model.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]model.Submission, error)
	Count(ctx context.Context) (int, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

// Upsert replaces a student's previous hand-in for the same post.
func (r *pgSubmissionRepository) Upsert(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (id, post_id, user_id, file_url, comment)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (post_id, user_id) DO UPDATE
	          SET file_url = EXCLUDED.file_url, comment = EXCLUDED.comment, updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.PostID, s.UserID, s.FileURL, s.Comment)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Upsert: %w", err)
	}
	return nil
}

const submissionSelect = `
	SELECT s.id, s.post_id, s.user_id, s.file_url, s.comment, s.submitted_at, s.updated_at,
	       u.name AS user_name, p.title AS post_title
	FROM submissions s
	JOIN users u ON s.user_id = u.id
	JOIN posts p ON s.post_id = p.id`

func scanSubmission(row interface{ Scan(...interface{}) error }, s *model.Submission) error {
	return row.Scan(
		&s.ID, &s.PostID, &s.UserID, &s.FileURL, &s.Comment, &s.SubmittedAt, &s.UpdatedAt,
		&s.UserName, &s.PostTitle,
	)
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	s := &model.Submission{}
	err := scanSubmission(r.db.QueryRowContext(ctx, submissionSelect+" WHERE s.id = $1", id), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListByPost(ctx context.Context, postID string) ([]model.Submission, error) {
	return r.list(ctx, "pgSubmissionRepository.ListByPost", " WHERE s.post_id = $1 ORDER BY s.submitted_at DESC", postID)
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	return r.list(ctx, "pgSubmissionRepository.ListByUser", " WHERE s.user_id = $1 ORDER BY s.submitted_at DESC", userID)
}

func (r *pgSubmissionRepository) list(ctx context.Context, op, where string, arg interface{}) ([]model.Submission, error) {
	rows, err := r.db.QueryContext(ctx, submissionSelect+where, arg)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		submissions = append(submissions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows.Err: %w", op, err)
	}
	return submissions, nil
}

func (r *pgSubmissionRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.Count: %w", err)
	}
	return total, nil
}
