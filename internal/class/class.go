// Package class manages school classes and their sections.
package class

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/sentinel"
	platformstrings "schoolchain/pkg/platform/strings"
)

// Class is one school class with its sections.
type Class struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Sections  []string  `json:"sections"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists classes.
type Store interface {
	Create(ctx context.Context, class *Class) (*Class, error)
	Update(ctx context.Context, class *Class) error
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*Class, error)
	List(ctx context.Context) ([]*Class, error)
}

// MemoryStore keeps classes in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int
	classes map[int]*Class
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{classes: make(map[int]*Class)}
}

func (s *MemoryStore) Create(_ context.Context, class *Class) (*Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classes {
		if c.Name == class.Name {
			return nil, sentinel.ErrConflict
		}
	}
	s.nextID++
	now := time.Now().UTC()
	stored := *class
	stored.ID = s.nextID
	stored.Sections = append([]string(nil), class.Sections...)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.classes[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, class *Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.classes[class.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, c := range s.classes {
		if c.ID != class.ID && c.Name == class.Name {
			return sentinel.ErrConflict
		}
	}
	updated := *class
	updated.Sections = append([]string(nil), class.Sections...)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.classes[updated.ID] = &updated
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.classes, id)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	class, ok := s.classes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *class
	out.Sections = append([]string(nil), class.Sections...)
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Class, 0, len(s.classes))
	for _, class := range s.classes {
		c := *class
		c.Sections = append([]string(nil), class.Sections...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Service validates class operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, name string, sections []string) (*Class, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "class name is required")
	}
	class, err := s.store.Create(ctx, &Class{Name: name, Sections: platformstrings.DedupeAndTrim(sections)})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "class already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to add class", err)
	}
	return class, nil
}

func (s *Service) Update(ctx context.Context, id int, name string, sections []string) (*Class, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "class name is required")
	}
	if err := s.store.Update(ctx, &Class{ID: id, Name: name, Sections: platformstrings.DedupeAndTrim(sections)}); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "class does not exist")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "class already exists")
		default:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to update class", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "class does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete class", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int) (*Class, error) {
	class, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "class does not exist")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load class", err)
	}
	return class, nil
}

func (s *Service) List(ctx context.Context) ([]*Class, error) {
	classes, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list classes", err)
	}
	return classes, nil
}
