package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, enrollment *model.Enrollment) error
	CreateBatch(ctx context.Context, tx *sql.Tx, enrollments []model.Enrollment) error
	FindByID(ctx context.Context, id string) (*model.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type pgEnrollmentRepository struct {
	db *sql.DB
}

func NewPgEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &pgEnrollmentRepository{db: db}
}

func (r *pgEnrollmentRepository) Create(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error {
	query := `INSERT INTO enrollments (id, user_id, course_id, role) VALUES ($1, $2, $3, $4)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, e.ID, e.UserID, e.CourseID, e.Role)
	} else {
		_, err = r.db.ExecContext(ctx, query, e.ID, e.UserID, e.CourseID, e.Role)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique (user_id, course_id)
			return fmt.Errorf("user is already enrolled in this course: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgEnrollmentRepository.Create: %w", err)
	}
	return nil
}

// CreateBatch inserts all enrollments through one prepared statement inside
// the caller's transaction. Any failure aborts the whole batch.
func (r *pgEnrollmentRepository) CreateBatch(ctx context.Context, tx *sql.Tx, enrollments []model.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO enrollments (id, user_id, course_id, role) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.CreateBatch prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range enrollments {
		if _, err := stmt.ExecContext(ctx, e.ID, e.UserID, e.CourseID, e.Role); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("user %s is already enrolled in this course: %w", e.UserID, common.ErrConflict)
			}
			return fmt.Errorf("pgEnrollmentRepository.CreateBatch exec for user %s: %w", e.UserID, err)
		}
	}
	return nil
}

const enrollmentSelect = `
	SELECT e.id, e.user_id, e.course_id, e.role, e.created_at,
	       u.name AS user_name, u.email AS user_email,
	       c.title AS course_title, c.slug AS course_slug
	FROM enrollments e
	JOIN users u ON e.user_id = u.id
	JOIN courses c ON e.course_id = c.id`

func scanEnrollment(row interface{ Scan(...interface{}) error }, e *model.Enrollment) error {
	return row.Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.Role, &e.CreatedAt,
		&e.UserName, &e.UserEmail, &e.CourseTitle, &e.CourseSlug,
	)
}

func (r *pgEnrollmentRepository) FindByID(ctx context.Context, id string) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := scanEnrollment(r.db.QueryRowContext(ctx, enrollmentSelect+" WHERE e.id = $1", id), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEnrollmentRepository.FindByID: %w", err)
	}
	return e, nil
}

func (r *pgEnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := scanEnrollment(r.db.QueryRowContext(ctx, enrollmentSelect+" WHERE e.user_id = $1 AND e.course_id = $2", userID, courseID), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEnrollmentRepository.FindByUserAndCourse: %w", err)
	}
	return e, nil
}

func (r *pgEnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return r.list(ctx, "pgEnrollmentRepository.ListByUser", " WHERE e.user_id = $1 ORDER BY e.created_at DESC", userID)
}

func (r *pgEnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	return r.list(ctx, "pgEnrollmentRepository.ListByCourse", " WHERE e.course_id = $1 ORDER BY u.name ASC", courseID)
}

func (r *pgEnrollmentRepository) list(ctx context.Context, op, where string, arg interface{}) ([]model.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, enrollmentSelect+where, arg)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := scanEnrollment(rows, &e); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		enrollments = append(enrollments, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows.Err: %w", op, err)
	}
	return enrollments, nil
}

func (r *pgEnrollmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgEnrollmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgEnrollmentRepository.Count: %w", err)
	}
	return total, nil
}
