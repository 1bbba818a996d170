// Package notice manages school-wide announcements.
package notice

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

// Audience scopes who a notice is shown to.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceStudents Audience = "students"
	AudienceTeachers Audience = "teachers"
)

func (a Audience) valid() bool {
	switch a {
	case AudienceAll, AudienceStudents, AudienceTeachers:
		return true
	}
	return false
}

// Notice is one announcement.
type Notice struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Audience  Audience  `json:"audience"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists notices.
type Store interface {
	Create(ctx context.Context, notice *Notice) (*Notice, error)
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*Notice, error)
	List(ctx context.Context, audience Audience) ([]*Notice, error)
}

// MemoryStore keeps notices in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int
	notices map[int]*Notice
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notices: make(map[int]*Notice)}
}

func (s *MemoryStore) Create(_ context.Context, notice *Notice) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	stored := *notice
	stored.ID = s.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.notices[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.notices, id)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (*Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notice, ok := s.notices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *notice
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context, audience Audience) ([]*Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Notice, 0, len(s.notices))
	for _, notice := range s.notices {
		if audience != "" && notice.Audience != audience && notice.Audience != AudienceAll {
			continue
		}
		n := *notice
		out = append(out, &n)
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Service validates notice operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Publish creates a notice authored by the given user.
func (s *Service) Publish(ctx context.Context, title, content string, audience Audience, author string) (*Notice, error) {
	if title == "" || content == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title and content are required")
	}
	if audience == "" {
		audience = AudienceAll
	}
	if !audience.valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "audience must be all, students or teachers")
	}

	notice, err := s.store.Create(ctx, &Notice{
		Title:     title,
		Content:   content,
		Audience:  audience,
		CreatedBy: author,
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to publish notice", err)
	}
	s.logger.InfoContext(ctx, "notice published", "notice_id", notice.ID, "audience", audience)
	return notice, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Notice, error) {
	notice, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notice does not exist")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load notice", err)
	}
	return notice, nil
}

func (s *Service) List(ctx context.Context, audience Audience) ([]*Notice, error) {
	if audience != "" && !audience.valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "audience must be all, students or teachers")
	}
	notices, err := s.store.List(ctx, audience)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list notices", err)
	}
	return notices, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notice does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete notice", err)
	}
	return nil
}
