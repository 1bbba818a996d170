package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"schoolchain/pkg/platform/sentinel"
)

// PostgresStore persists students in PostgreSQL via database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const studentColumns = `
	id, name, email, phone, gender, class_name, section_name, roll,
	guardian_name, guardian_phone, admission_dt, wallet_address,
	is_active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, student *Student) (*Student, error) {
	query := `
		INSERT INTO students (
			name, email, phone, gender, class_name, section_name, roll,
			guardian_name, guardian_phone, wallet_address, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
		RETURNING` + studentColumns

	row := s.db.QueryRowContext(ctx, query,
		student.Name, student.Email, student.Phone, student.Gender,
		student.ClassName, student.SectionName, student.Roll,
		student.GuardianName, student.GuardianPhone, student.WalletAddress,
	)
	created, err := scanStudent(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, student *Student) error {
	query := `
		UPDATE students
		SET name = $1, email = $2, phone = $3, class_name = $4,
			section_name = $5, roll = $6, guardian_name = $7,
			guardian_phone = $8, wallet_address = $9, updated_at = $10
		WHERE id = $11`

	result, err := s.db.ExecContext(ctx, query,
		student.Name, student.Email, student.Phone, student.ClassName,
		student.SectionName, student.Roll, student.GuardianName,
		student.GuardianPhone, student.WalletAddress, time.Now().UTC(), student.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (*Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+studentColumns+` FROM students WHERE id = $1`, id)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+studentColumns+` FROM students WHERE lower(email) = lower($1)`, email)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return student, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) (*Page, error) {
	filter = filter.normalize()

	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Name != "" {
		add("name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.ClassName != "" {
		add("class_name = $%d", filter.ClassName)
	}
	if filter.SectionName != "" {
		add("section_name = $%d", filter.SectionName)
	}
	if filter.Roll != 0 {
		add("roll = $%d", filter.Roll)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT%s FROM students WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		studentColumns, cond, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := []*Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return &Page{Students: students, Total: total}, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id int, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE students SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set student status: %w", err)
	}
	return requireRow(result)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStudent(row scannable) (*Student, error) {
	var (
		student       Student
		phone         sql.NullString
		gender        sql.NullString
		className     sql.NullString
		sectionName   sql.NullString
		roll          sql.NullInt64
		guardianName  sql.NullString
		guardianPhone sql.NullString
		admission     sql.NullTime
		wallet        sql.NullString
	)
	err := row.Scan(
		&student.ID, &student.Name, &student.Email, &phone, &gender,
		&className, &sectionName, &roll, &guardianName, &guardianPhone,
		&admission, &wallet, &student.SystemAccess,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	student.Phone = phone.String
	student.Gender = gender.String
	student.ClassName = className.String
	student.SectionName = sectionName.String
	student.Roll = int(roll.Int64)
	student.GuardianName = guardianName.String
	student.GuardianPhone = guardianPhone.String
	if admission.Valid {
		t := admission.Time
		student.AdmissionDate = &t
	}
	student.WalletAddress = wallet.String
	return &student, nil
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
