package storage

import (
	"context"

	"solana-trading-bot/internal/domain"
)

// CandidateStore holds tokens that passed admission and verification and are
// waiting for the trading loop to pick them up. Entries expire after a
// configured retention window so the trader never acts on stale scans.
type CandidateStore interface {
	// Put inserts or refreshes a candidate, keyed by token address.
	// A re-scan of a known token replaces the stored entry and resets
	// its retention clock.
	Put(ctx context.Context, c *domain.Candidate) error

	// Get retrieves a candidate by token address. Returns ErrNotFound if
	// the candidate does not exist or has expired.
	Get(ctx context.Context, address string) (*domain.Candidate, error)

	// Fresh retrieves all candidates still inside the retention window,
	// ordered by discovery time ASC. Expired entries are evicted.
	Fresh(ctx context.Context) ([]*domain.Candidate, error)
}

// PositionStore holds the set of open simulated positions and the history of
// closed ones.
type PositionStore interface {
	// Open records a new position. Returns ErrDuplicateKey if a position
	// for the token is already open.
	Open(ctx context.Context, p *domain.Position) error

	// Get retrieves an open position by token address. Returns ErrNotFound
	// if no position is open for the token.
	Get(ctx context.Context, tokenAddress string) (*domain.Position, error)

	// Update replaces an open position (trailing stop ratchet, new peak).
	// Returns ErrNotFound if no position is open for the token.
	Update(ctx context.Context, p *domain.Position) error

	// Close removes the open position for the token and appends the closed
	// record to the history. Returns ErrNotFound if no position is open.
	Close(ctx context.Context, tokenAddress string, cp *domain.ClosedPosition) error

	// OpenPositions retrieves all open positions, ordered by open time ASC.
	OpenPositions(ctx context.Context) ([]*domain.Position, error)

	// ClosedPositions retrieves the closed-trade history in close order.
	ClosedPositions(ctx context.Context) ([]*domain.ClosedPosition, error)
}
