package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/storage"
)

// CandidateStore is an in-memory implementation of storage.CandidateStore
// with time-based eviction. Expiry is lazy: expired entries are dropped on
// the reads that would otherwise return them.
type CandidateStore struct {
	mu        sync.Mutex
	data      map[string]*domain.Candidate // keyed by token address
	retention time.Duration
	now       func() time.Time
}

// NewCandidateStore creates an in-memory candidate store. Candidates older
// than retention are evicted; a non-positive retention disables expiry.
func NewCandidateStore(retention time.Duration) *CandidateStore {
	return &CandidateStore{
		data:      make(map[string]*domain.Candidate),
		retention: retention,
		now:       time.Now,
	}
}

// Put inserts or refreshes a candidate, keyed by token address.
func (s *CandidateStore) Put(_ context.Context, c *domain.Candidate) error {
	if c == nil || c.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	candidateCopy := *c
	s.data[c.Address] = &candidateCopy
	return nil
}

// Get retrieves a candidate by token address.
func (s *CandidateStore) Get(_ context.Context, address string) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if s.expired(c) {
		delete(s.data, address)
		return nil, storage.ErrNotFound
	}

	// Return a copy
	candidateCopy := *c
	return &candidateCopy, nil
}

// Fresh retrieves all unexpired candidates ordered by discovery time ASC,
// evicting the rest.
func (s *CandidateStore) Fresh(_ context.Context) ([]*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Candidate
	for addr, c := range s.data {
		if s.expired(c) {
			delete(s.data, addr)
			continue
		}
		candidateCopy := *c
		result = append(result, &candidateCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DiscoveredAt.Before(result[j].DiscoveredAt)
	})

	return result, nil
}

func (s *CandidateStore) expired(c *domain.Candidate) bool {
	if s.retention <= 0 {
		return false
	}
	return s.now().Sub(c.DiscoveredAt) > s.retention
}

// Verify interface compliance at compile time.
var _ storage.CandidateStore = (*CandidateStore)(nil)
