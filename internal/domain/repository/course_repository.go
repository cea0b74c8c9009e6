package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"classhub/internal/common"
	"classhub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *sql.Tx, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id string) (*model.Course, error)
	FindBySlug(ctx context.Context, slug string) (*model.Course, error)
	List(ctx context.Context, limit, offset int, searchTerm string, includeArchived bool) ([]model.Course, int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (total, archived int, err error)
}

type pgCourseRepository struct {
	db *sql.DB
}

func NewPgCourseRepository(db *sql.DB) CourseRepository {
	return &pgCourseRepository{db: db}
}

func (r *pgCourseRepository) Create(ctx context.Context, tx *sql.Tx, c *model.Course) error {
	query := `INSERT INTO courses (id, title, slug, description, capacity, is_archived, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, c.ID, c.Title, c.Slug, c.Description, c.Capacity, c.IsArchived, c.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, c.ID, c.Title, c.Slug, c.Description, c.Capacity, c.IsArchived, c.CreatedByID)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("course with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCourseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) Update(ctx context.Context, c *model.Course) error {
	query := `UPDATE courses SET
	            title = $1, slug = $2, description = $3, capacity = $4,
	            is_archived = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, c.Title, c.Slug, c.Description, c.Capacity, c.IsArchived, c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("course with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCourseRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCourseRepository.Update rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

const courseSelect = `
	SELECT c.id, c.title, c.slug, c.description, c.capacity, c.is_archived,
	       c.created_by, u.name AS created_by_name,
	       (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrolled_count,
	       c.created_at, c.updated_at
	FROM courses c
	LEFT JOIN users u ON c.created_by = u.id`

func (r *pgCourseRepository) findOne(ctx context.Context, op, where string, arg interface{}) (*model.Course, error) {
	course := &model.Course{}
	err := r.db.QueryRowContext(ctx, courseSelect+where, arg).Scan(
		&course.ID, &course.Title, &course.Slug, &course.Description, &course.Capacity, &course.IsArchived,
		&course.CreatedByID, &course.CreatedByName, &course.EnrolledCount,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

func (r *pgCourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	return r.findOne(ctx, "pgCourseRepository.FindByID", " WHERE c.id = $1", id)
}

func (r *pgCourseRepository) FindBySlug(ctx context.Context, slug string) (*model.Course, error) {
	return r.findOne(ctx, "pgCourseRepository.FindBySlug", " WHERE c.slug = $1", slug)
}

func (r *pgCourseRepository) List(ctx context.Context, limit, offset int, searchTerm string, includeArchived bool) ([]model.Course, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(courseSelect)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(*) FROM courses c`)

	var conditions []string
	var args []interface{}
	argID := 1

	if !includeArchived {
		conditions = append(conditions, "c.is_archived = FALSE")
	}
	if searchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(c.title ILIKE $%d OR c.description ILIKE $%d)", argID, argID+1))
		likeTerm := "%" + searchTerm + "%"
		args = append(args, likeTerm, likeTerm)
		argID += 2
	}

	if len(conditions) > 0 {
		whereClause := " WHERE " + strings.Join(conditions, " AND ")
		baseQuery.WriteString(whereClause)
		countQuery.WriteString(whereClause)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgCourseRepository.List count: %w", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgCourseRepository.List query: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Slug, &c.Description, &c.Capacity, &c.IsArchived,
			&c.CreatedByID, &c.CreatedByName, &c.EnrolledCount,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgCourseRepository.List scan: %w", err)
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgCourseRepository.List rows.Err: %w", err)
	}
	return courses, total, nil
}

func (r *pgCourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCourseRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCourseRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCourseRepository) Count(ctx context.Context) (int, int, error) {
	var total, archived int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_archived) FROM courses`,
	).Scan(&total, &archived)
	if err != nil {
		return 0, 0, fmt.Errorf("pgCourseRepository.Count: %w", err)
	}
	return total, archived, nil
}
