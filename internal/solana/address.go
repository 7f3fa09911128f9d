// Package solana provides address-level helpers for Solana public keys.
package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that addr is a plausible Solana public key: valid
// base58, exactly 32 bytes, and a canonical point on the ed25519 curve.
// Program derived addresses are intentionally off-curve and fail this check;
// mints and wallets are on-curve.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address %q: got %d bytes, want 32", addr, len(raw))
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("address %q is not on the ed25519 curve", addr)
	}
	return nil
}

// IsAddress reports whether addr passes ValidateAddress.
func IsAddress(addr string) bool {
	return ValidateAddress(addr) == nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
