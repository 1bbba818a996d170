package student

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"

	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/sentinel"
)

// Service validates and executes student operations on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register adds a new student.
func (s *Service) Register(ctx context.Context, req CreateRequest) (*Student, error) {
	if req.Name == "" || req.Email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and email are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid email address")
	}

	created, err := s.store.Create(ctx, &Student{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Gender:        req.Gender,
		ClassName:     req.ClassName,
		SectionName:   req.SectionName,
		Roll:          req.Roll,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a student with this email already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to register student", err)
	}

	s.logger.InfoContext(ctx, "student registered", "student_id", created.ID)
	return created, nil
}

// Update applies a partial update to a student's profile.
func (s *Service) Update(ctx context.Context, id int, req UpdateRequest) (*Student, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load student", err)
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&current.Name, req.Name)
	applyString(&current.Email, req.Email)
	applyString(&current.Phone, req.Phone)
	applyString(&current.ClassName, req.ClassName)
	applyString(&current.SectionName, req.SectionName)
	applyString(&current.GuardianName, req.GuardianName)
	applyString(&current.GuardianPhone, req.GuardianPhone)
	applyString(&current.WalletAddress, req.WalletAddress)
	if req.Roll != nil {
		current.Roll = *req.Roll
	}

	if current.Name == "" || current.Email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and email must not be empty")
	}
	if _, err := mail.ParseAddress(current.Email); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid email address")
	}

	if err := s.store.Update(ctx, current); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a student with this email already exists")
		default:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to update student", err)
		}
	}
	return s.Get(ctx, id)
}

// Get fetches one student.
func (s *Service) Get(ctx context.Context, id int) (*Student, error) {
	student, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load student", err)
	}
	return student, nil
}

// List pages through students matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (*Page, error) {
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list students", err)
	}
	return page, nil
}

// SetStatus enables or disables a student's system access.
func (s *Service) SetStatus(ctx context.Context, id int, active bool) error {
	if err := s.store.SetStatus(ctx, id, active); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update student status", err)
	}
	s.logger.InfoContext(ctx, "student status updated", "student_id", id, "active", active)
	return nil
}
