package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trading-bot/internal/domain"
	"solana-trading-bot/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu     sync.RWMutex
	open   map[string]*domain.Position // keyed by token address
	closed []*domain.ClosedPosition    // append-only, in close order
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		open: make(map[string]*domain.Position),
	}
}

// Open records a new position. Returns ErrDuplicateKey if a position for the
// token is already open.
func (s *PositionStore) Open(_ context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.open[p.TokenAddress]; exists {
		return storage.ErrDuplicateKey
	}

	positionCopy := *p
	s.open[p.TokenAddress] = &positionCopy
	return nil
}

// Get retrieves an open position by token address.
func (s *PositionStore) Get(_ context.Context, tokenAddress string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.open[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	positionCopy := *p
	return &positionCopy, nil
}

// Update replaces an open position.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.open[p.TokenAddress]; !exists {
		return storage.ErrNotFound
	}

	positionCopy := *p
	s.open[p.TokenAddress] = &positionCopy
	return nil
}

// Close removes the open position and appends the closed record.
func (s *PositionStore) Close(_ context.Context, tokenAddress string, cp *domain.ClosedPosition) error {
	if cp == nil || tokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.open[tokenAddress]; !exists {
		return storage.ErrNotFound
	}

	delete(s.open, tokenAddress)
	closedCopy := *cp
	s.closed = append(s.closed, &closedCopy)
	return nil
}

// OpenPositions retrieves all open positions ordered by open time ASC.
func (s *PositionStore) OpenPositions(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.open {
		positionCopy := *p
		result = append(result, &positionCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})

	return result, nil
}

// ClosedPositions retrieves the closed-trade history in close order.
func (s *PositionStore) ClosedPositions(_ context.Context) ([]*domain.ClosedPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ClosedPosition, 0, len(s.closed))
	for _, cp := range s.closed {
		closedCopy := *cp
		result = append(result, &closedCopy)
	}

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)
