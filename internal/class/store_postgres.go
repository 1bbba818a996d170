package class

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"schoolchain/pkg/platform/sentinel"
)

// Schema creates the classes table.
const Schema = `
CREATE TABLE IF NOT EXISTS classes (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	sections   TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists classes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, class *Class) (*Class, error) {
	var created Class
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO classes (name, sections) VALUES ($1, $2)
		 RETURNING id, name, sections, created_at, updated_at`,
		class.Name, pq.Array(class.Sections),
	).Scan(&created.ID, &created.Name, pq.Array(&created.Sections), &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create class: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) Update(ctx context.Context, class *Class) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE classes SET name = $1, sections = $2, updated_at = $3 WHERE id = $4`,
		class.Name, pq.Array(class.Sections), time.Now().UTC(), class.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update class: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (*Class, error) {
	var class Class
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, sections, created_at, updated_at FROM classes WHERE id = $1`, id,
	).Scan(&class.ID, &class.Name, pq.Array(&class.Sections), &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Class, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sections, created_at, updated_at FROM classes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	classes := []*Class{}
	for rows.Next() {
		var class Class
		if err := rows.Scan(&class.ID, &class.Name, pq.Array(&class.Sections), &class.CreatedAt, &class.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, &class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
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
