package memory

import (
	"context"
	"sync"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Store implements ports.ProgressStore in memory.
// Safe for concurrent use; the status server reads while the driver writes.
type Store struct {
	data map[string]domain.Progress
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Progress),
	}
}

// Save persists the progress in memory. Progress is a value type, so the
// stored copy cannot be mutated by the caller afterwards.
func (s *Store) Save(ctx context.Context, sweep string, progress domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sweep] = progress
	return nil
}

// Load retrieves the progress from memory.
func (s *Store) Load(ctx context.Context, sweep string) (domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress, ok := s.data[sweep]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return progress, nil
}

// Delete removes the progress.
func (s *Store) Delete(ctx context.Context, sweep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sweep)
	return nil
}

// List returns the sweeps with recorded progress.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sweeps := make([]string, 0, len(s.data))
	for name := range s.data {
		sweeps = append(sweeps, name)
	}
	return sweeps, nil
}
