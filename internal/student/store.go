package student

import "context"

// Store persists student records. Implementations return
// sentinel.ErrNotFound for missing students and sentinel.ErrConflict for
// duplicate emails.
type Store interface {
	Create(ctx context.Context, s *Student) (*Student, error)
	Update(ctx context.Context, s *Student) error
	FindByID(ctx context.Context, id int) (*Student, error)
	FindByEmail(ctx context.Context, email string) (*Student, error)
	List(ctx context.Context, filter Filter) (*Page, error)
	SetStatus(ctx context.Context, id int, active bool) error
}
