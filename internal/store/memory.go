package store

import (
	"context"
	"sync"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// MemoryStore serves threads held in process, typically loaded from a seed file.
type MemoryStore struct {
	mu      sync.RWMutex
	threads []domain.Thread
}

// NewMemoryStore creates a store over a copy of threads.
func NewMemoryStore(threads []domain.Thread) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(threads)
	return s
}

// Replace swaps the whole thread set.
func (s *MemoryStore) Replace(threads []domain.Thread) {
	cp := make([]domain.Thread, len(threads))
	copy(cp, threads)

	s.mu.Lock()
	s.threads = cp
	s.mu.Unlock()
}

// ListThreads implements NodeStore.
func (s *MemoryStore) ListThreads(ctx context.Context, prefix string) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := FilterByPrefix(s.threads, prefix)
	out := make([]domain.Thread, len(filtered))
	copy(out, filtered)
	return out, nil
}

// FindNodeByID implements NodeStore.
func (s *MemoryStore) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindNode(s.threads, id), nil
}
