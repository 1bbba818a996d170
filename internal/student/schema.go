package student

// Schema creates the students table. Applied by deployment tooling and the
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS students (
	id             SERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE,
	phone          TEXT,
	gender         TEXT,
	class_name     TEXT,
	section_name   TEXT,
	roll           INTEGER,
	guardian_name  TEXT,
	guardian_phone TEXT,
	admission_dt   TIMESTAMPTZ,
	wallet_address TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT true,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students (class_name, section_name);
`
