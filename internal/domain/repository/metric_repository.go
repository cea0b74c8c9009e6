package repository

import (
	"context"
	"database/sql"
	"fmt"

	"classhub/internal/domain/model"
)

type MetricRepository interface {
	Add(ctx context.Context, name string, delta int64) error
	GetAll(ctx context.Context) ([]model.MetricCount, error)
}

type pgMetricRepository struct {
	db *sql.DB
}

func NewPgMetricRepository(db *sql.DB) MetricRepository {
	return &pgMetricRepository{db: db}
}

func (r *pgMetricRepository) Add(ctx context.Context, name string, delta int64) error {
	query := `INSERT INTO metric_counts (name, count)
	          VALUES ($1, $2)
	          ON CONFLICT (name) DO UPDATE
	          SET count = metric_counts.count + EXCLUDED.count, updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, name, delta)
	if err != nil {
		return fmt.Errorf("pgMetricRepository.Add: %w", err)
	}
	return nil
}

func (r *pgMetricRepository) GetAll(ctx context.Context) ([]model.MetricCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, count, updated_at FROM metric_counts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgMetricRepository.GetAll query: %w", err)
	}
	defer rows.Close()

	metrics := []model.MetricCount{}
	for rows.Next() {
		var m model.MetricCount
		if err := rows.Scan(&m.Name, &m.Count, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgMetricRepository.GetAll scan: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMetricRepository.GetAll rows.Err: %w", err)
	}
	return metrics, nil
}
