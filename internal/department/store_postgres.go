package department

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"schoolchain/pkg/platform/sentinel"
)

// Schema creates the departments table.
const Schema = `
CREATE TABLE IF NOT EXISTS departments (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists departments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, name string) (*Department, error) {
	var dept Department
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id, name, created_at, updated_at`,
		name,
	).Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create department: %w", err)
	}
	return &dept, nil
}

func (s *PostgresStore) Rename(ctx context.Context, id int, name string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE departments SET name = $1, updated_at = $2 WHERE id = $3`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("rename department: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (*Department, error) {
	var dept Department
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`, id,
	).Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &dept, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM departments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []*Department{}
	for rows.Next() {
		var dept Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, &dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
