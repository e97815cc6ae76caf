package bug

import (
	"context"
	"sync"
	"time"

	"github.com/zulandar/bugboard/internal/models"
)

// MemoryStore is a Store backed by an in-process slice. Every mutation runs
// under the write lock against a copy of the record, which is swapped in only
// once the whole change has succeeded.
type MemoryStore struct {
	mu      sync.RWMutex
	bugs    []models.Bug
	nextSeq int64
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding copies of seed in the given order.
// A nil now uses time.Now.
func NewMemoryStore(seed []models.Bug, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryStore{now: now}
	for _, b := range seed {
		s.nextSeq++
		c := b.Clone()
		c.Seq = s.nextSeq
		if c.Comments == nil {
			c.Comments = []models.Comment{}
		}
		s.bugs = append(s.bugs, c)
	}
	return s
}

// List returns copies of all bugs in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]models.Bug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Bug, len(s.bugs))
	for i, b := range s.bugs {
		out[i] = b.Clone()
	}
	return out, nil
}

// Get returns a copy of the bug with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Bug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, notFound(id)
	}
	b := s.bugs[i].Clone()
	return &b, nil
}

// Create validates the draft and appends it as the newest bug.
func (s *MemoryStore) Create(_ context.Context, d Draft) (*models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := newBug(d, s.now())
	if err != nil {
		return nil, err
	}

	id, err := generateUniqueID(func(id string) (bool, error) {
		return s.indexOf(id) >= 0, nil
	})
	if err != nil {
		return nil, err
	}
	b.ID = id
	s.nextSeq++
	b.Seq = s.nextSeq

	s.bugs = append(s.bugs, b)
	out := b.Clone()
	return &out, nil
}

// AppendComment adds a comment to a bug and bumps its UpdatedAt.
func (s *MemoryStore) AppendComment(_ context.Context, bugID, author, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(bugID)
	if i < 0 {
		return nil, notFound(bugID)
	}

	now := s.now()
	c, err := newComment(bugID, author, content, now)
	if err != nil {
		return nil, err
	}

	b := s.bugs[i].Clone()
	if err := touch(&b, now); err != nil {
		return nil, err
	}
	b.Comments = append(b.Comments, c)
	s.bugs[i] = b
	return &c, nil
}

// SetStatus moves a bug to the given status. Any status may follow any other.
func (s *MemoryStore) SetStatus(_ context.Context, id string, status models.Status) (*models.Bug, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, notFound(id)
	}

	b := s.bugs[i].Clone()
	if err := touch(&b, s.now()); err != nil {
		return nil, err
	}
	b.Status = status
	s.bugs[i] = b

	out := b.Clone()
	return &out, nil
}

// Update applies field edits to a bug.
func (s *MemoryStore) Update(_ context.Context, id string, p Patch) (*models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, notFound(id)
	}

	b, err := applyPatch(s.bugs[i], p, s.now())
	if err != nil {
		return nil, err
	}
	s.bugs[i] = b

	out := b.Clone()
	return &out, nil
}

// indexOf returns the slice position of id, or -1. Callers must hold mu.
func (s *MemoryStore) indexOf(id string) int {
	for i := range s.bugs {
		if s.bugs[i].ID == id {
			return i
		}
	}
	return -1
}
