package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]model.Post, int, error)
	Delete(ctx context.Context, id string) error
}

type pgPostRepository struct {
	db *sql.DB
}

func NewPgPostRepository(db *sql.DB) PostRepository {
	return &pgPostRepository{db: db}
}

func (r *pgPostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (id, course_id, author_id, title, body, file_url, link_url, is_pinned)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.CourseID, p.AuthorID, p.Title, p.Body, p.FileURL, p.LinkURL, p.IsPinned)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPostRepository) Update(ctx context.Context, p *model.Post) error {
	query := `UPDATE posts SET
	            title = $1, body = $2, file_url = $3, link_url = $4, is_pinned = $5,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, p.Title, p.Body, p.FileURL, p.LinkURL, p.IsPinned, p.ID)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgPostRepository.Update rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	query := `
		SELECT p.id, p.course_id, p.author_id, p.title, p.body, p.file_url, p.link_url,
		       p.is_pinned, u.name AS author_name, p.created_at, p.updated_at
		FROM posts p
		LEFT JOIN users u ON p.author_id = u.id
		WHERE p.id = $1`
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.CourseID, &post.AuthorID, &post.Title, &post.Body, &post.FileURL, &post.LinkURL,
		&post.IsPinned, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	return post, nil
}

// ListByCourse orders pinned posts first, then newest.
func (r *pgPostRepository) ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]model.Post, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE course_id = $1`, courseID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.ListByCourse count: %w", err)
	}

	query := `
		SELECT p.id, p.course_id, p.author_id, p.title, p.body, p.file_url, p.link_url,
		       p.is_pinned, u.name AS author_name, p.created_at, p.updated_at
		FROM posts p
		LEFT JOIN users u ON p.author_id = u.id
		WHERE p.course_id = $1
		ORDER BY p.is_pinned DESC, p.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, courseID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.ListByCourse query: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.CourseID, &p.AuthorID, &p.Title, &p.Body, &p.FileURL, &p.LinkURL,
			&p.IsPinned, &p.AuthorName, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgPostRepository.ListByCourse scan: %w", err)
		}
		posts = append(posts, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.ListByCourse rows.Err: %w", err)
	}
	return posts, total, nil
}

func (r *pgPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
