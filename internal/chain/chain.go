// Package chain abstracts the on-chain interactions the trading loop needs:
// contract verification before entering a position and wallet balance for
// position sizing. Both currently ship with simulation stubs; the interfaces
// are the seam where real RPC-backed implementations plug in.
package chain

import "context"

// ContractVerifier checks whether a token contract is safe to trade.
type ContractVerifier interface {
	VerifyContract(ctx context.Context, tokenAddress string) (bool, error)
}

// Wallet reports the balance available for trading, in SOL.
type Wallet interface {
	Balance(ctx context.Context) (float64, error)
}

// StubVerifier approves every contract. Safe in simulation only; a live
// deployment needs mint/freeze authority and liquidity-lock checks here.
type StubVerifier struct{}

// VerifyContract always reports the contract as safe.
func (StubVerifier) VerifyContract(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// StubWallet reports a fixed simulated balance.
type StubWallet struct {
	SOL float64
}

// NewStubWallet creates a wallet stub with a 10 SOL simulated balance.
func NewStubWallet() *StubWallet {
	return &StubWallet{SOL: 10.0}
}

// Balance returns the simulated balance.
func (w *StubWallet) Balance(_ context.Context) (float64, error) {
	return w.SOL, nil
}

var (
	_ ContractVerifier = StubVerifier{}
	_ Wallet           = (*StubWallet)(nil)
)
