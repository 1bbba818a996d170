package student

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"schoolchain/pkg/platform/sentinel"
)

// MemoryStore keeps students in process memory. Used in tests and for local
// development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int
	students map[int]*Student
	byEmail  map[string]int
	clock    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: make(map[int]*Student),
		byEmail:  make(map[string]int),
		clock:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, student *Student) (*Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[strings.ToLower(student.Email)]; exists {
		return nil, sentinel.ErrConflict
	}

	s.nextID++
	now := s.clock().UTC()

	stored := *student
	stored.ID = s.nextID
	stored.SystemAccess = true
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.students[stored.ID] = &stored
	s.byEmail[strings.ToLower(stored.Email)] = stored.ID

	out := stored
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, student *Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.students[student.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if id, exists := s.byEmail[strings.ToLower(student.Email)]; exists && id != student.ID {
		return sentinel.ErrConflict
	}

	delete(s.byEmail, strings.ToLower(current.Email))
	updated := *student
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.clock().UTC()
	s.students[updated.ID] = &updated
	s.byEmail[strings.ToLower(updated.Email)] = updated.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *student
	return &out, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.students[id]
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) (*Page, error) {
	filter = filter.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Student, 0, len(s.students))
	for _, student := range s.students {
		if !matches(student, filter) {
			continue
		}
		out := *student
		matched = append(matched, &out)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return &Page{Students: []*Student{}, Total: total}, nil
	}
	end := min(start+filter.Limit, total)
	return &Page{Students: matched[start:end], Total: total}, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	student.SystemAccess = active
	student.UpdatedAt = s.clock().UTC()
	return nil
}

func matches(student *Student, filter Filter) bool {
	if filter.Name != "" && !strings.Contains(strings.ToLower(student.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if filter.ClassName != "" && student.ClassName != filter.ClassName {
		return false
	}
	if filter.SectionName != "" && student.SectionName != filter.SectionName {
		return false
	}
	if filter.Roll != 0 && student.Roll != filter.Roll {
		return false
	}
	return true
}
