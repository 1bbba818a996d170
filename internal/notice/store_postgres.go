package notice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"schoolchain/pkg/platform/sentinel"
)

// Schema creates the notices table.
const Schema = `
CREATE TABLE IF NOT EXISTS notices (
	id         SERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	audience   TEXT NOT NULL DEFAULT 'all',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists notices in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, notice *Notice) (*Notice, error) {
	var created Notice
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notices (title, content, audience, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, title, content, audience, created_by, created_at, updated_at`,
		notice.Title, notice.Content, string(notice.Audience), notice.CreatedBy,
	).Scan(&created.ID, &created.Title, &created.Content, &created.Audience,
		&created.CreatedBy, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (*Notice, error) {
	var notice Notice
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, audience, created_by, created_at, updated_at
		 FROM notices WHERE id = $1`, id,
	).Scan(&notice.ID, &notice.Title, &notice.Content, &notice.Audience,
		&notice.CreatedBy, &notice.CreatedAt, &notice.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find notice: %w", err)
	}
	return &notice, nil
}

func (s *PostgresStore) List(ctx context.Context, audience Audience) ([]*Notice, error) {
	query := `SELECT id, title, content, audience, created_by, created_at, updated_at
		FROM notices`
	args := []any{}
	if audience != "" {
		query += ` WHERE audience = $1 OR audience = 'all'`
		args = append(args, string(audience))
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	notices := []*Notice{}
	for rows.Next() {
		var notice Notice
		if err := rows.Scan(&notice.ID, &notice.Title, &notice.Content, &notice.Audience,
			&notice.CreatedBy, &notice.CreatedAt, &notice.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, &notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}
