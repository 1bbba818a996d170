// Package department manages academic departments. Departments are a small,
// rarely changing reference set; list responses are served through the
// response cache.
package department

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/sentinel"
)

// Department is one academic department.
type Department struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists departments.
type Store interface {
	Create(ctx context.Context, name string) (*Department, error)
	Rename(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

// MemoryStore keeps departments in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int
	departments map[int]*Department
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{departments: make(map[int]*Department)}
}

func (s *MemoryStore) Create(_ context.Context, name string) (*Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if d.Name == name {
			return nil, sentinel.ErrConflict
		}
	}
	s.nextID++
	now := time.Now().UTC()
	dept := &Department{ID: s.nextID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.departments[dept.ID] = dept
	out := *dept
	return &out, nil
}

func (s *MemoryStore) Rename(_ context.Context, id int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept, ok := s.departments[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	dept.Name = name
	dept.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.departments, id)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (*Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dept, ok := s.departments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *dept
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Department, 0, len(s.departments))
	for _, dept := range s.departments {
		d := *dept
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Service validates department operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, name string) (*Department, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "department name is required")
	}
	dept, err := s.store.Create(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "department already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to add department", err)
	}
	return dept, nil
}

func (s *Service) Rename(ctx context.Context, id int, name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "department name is required")
	}
	if err := s.store.Rename(ctx, id, name); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "department does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update department", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "department does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete department", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int) (*Department, error) {
	dept, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "department does not exist")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load department", err)
	}
	return dept, nil
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	departments, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list departments", err)
	}
	return departments, nil
}
