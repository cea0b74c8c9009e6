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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, limit, offset int, role, status, searchTerm string) ([]model.User, int, error)
	UpdateRole(ctx context.Context, id, role string) error
	UpdateStatus(ctx context.Context, id, status string) error
	UpdatePassword(ctx context.Context, id, hashedPassword string, firstLogin bool) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[string]int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, email, name, hashed_password, role, status, first_login, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }, user *model.User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.HashedPassword,
		&user.Role, &user.Status, &user.FirstLogin, &user.CreatedAt, &user.UpdatedAt,
	)
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, name, hashed_password, role, status, first_login)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.HashedPassword, user.Role, user.Status, user.FirstLogin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user := &model.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, email), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user := &model.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

// List builds the admin console query dynamically from the provided filters.
func (r *pgUserRepository) List(ctx context.Context, limit, offset int, role, status, searchTerm string) ([]model.User, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(`SELECT ` + userColumns + ` FROM users`)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(*) FROM users`)

	var conditions []string
	var args []interface{}
	argID := 1

	if role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argID))
		args = append(args, role)
		argID++
	}
	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, status)
		argID++
	}
	if searchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argID, argID+1))
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
		return nil, 0, fmt.Errorf("pgUserRepository.List count: %w", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List query: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List rows.Err: %w", err)
	}
	return users, total, nil
}

func (r *pgUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.updateField(ctx, "pgUserRepository.UpdateRole",
		`UPDATE users SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, role, id)
}

func (r *pgUserRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.updateField(ctx, "pgUserRepository.UpdateStatus",
		`UPDATE users SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, status, id)
}

func (r *pgUserRepository) updateField(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, hashedPassword string, firstLogin bool) error {
	return r.updateField(ctx, "pgUserRepository.UpdatePassword",
		`UPDATE users SET hashed_password = $1, first_login = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		hashedPassword, firstLogin, id)
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	return r.updateField(ctx, "pgUserRepository.Delete", `DELETE FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, "pgUserRepository.CountByRole", `SELECT role, COUNT(*) FROM users GROUP BY role`)
}

func (r *pgUserRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, "pgUserRepository.CountByStatus", `SELECT status, COUNT(*) FROM users GROUP BY status`)
}

func (r *pgUserRepository) countGrouped(ctx context.Context, op, query string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		counts[key] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows.Err: %w", op, err)
	}
	return counts, nil
}
