package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and single-node
// deployments without Postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]*Video
	clock  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[string]*Video),
		clock:  time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, v *Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[v.ID]; ok {
		return ErrConflict
	}

	now := s.clock()
	v.CreatedAt = now
	v.UpdatedAt = now

	cp := *v
	s.videos[v.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *v
	cp.Renditions = append([]Rendition(nil), v.Renditions...)
	return &cp, nil
}

func (s *MemoryStore) SetPublished(ctx context.Context, id string, p Publish) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	if v.Status != StatusProcessing {
		return ErrConflict
	}

	renditions := append([]Rendition(nil), p.Renditions...)
	sort.Slice(renditions, func(i, j int) bool {
		return renditions[i].Height > renditions[j].Height
	})

	v.DurationSeconds = p.DurationSeconds
	v.Renditions = renditions
	v.ThumbnailPath = p.ThumbnailPath
	v.Status = StatusPublished
	v.UpdatedAt = s.clock()
	return nil
}

func (s *MemoryStore) SetFailed(ctx context.Context, id string, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	if v.Status != StatusProcessing {
		return ErrConflict
	}

	v.Status = StatusFailed
	v.FailureReason = reason
	v.UpdatedAt = s.clock()
	return nil
}

func (s *MemoryStore) UpdateDetails(ctx context.Context, id, title, description, visibility string) (*Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}

	if title != "" {
		v.Title = title
	}
	if description != "" {
		v.Description = description
	}
	if visibility != "" {
		v.Visibility = visibility
	}
	v.UpdatedAt = s.clock()

	cp := *v
	cp.Renditions = append([]Rendition(nil), v.Renditions...)
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(s.videos, id)
	return nil
}
