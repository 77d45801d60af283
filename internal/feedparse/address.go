package feedparse

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"gemwatch/internal/domain"
)

// ClassifyIdentifier decides whether an extracted identifier is a plausible
// Solana address and, if so, whether it is a mint (on-curve ed25519 point)
// or a pool PDA (off-curve). Returns IdentifierUnknown for anything that is
// not a 32-byte base58 string.
func ClassifyIdentifier(id string) domain.IdentifierKind {
	raw, err := base58.Decode(id)
	if err != nil || len(raw) != 32 {
		return domain.IdentifierUnknown
	}

	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		// Not a valid curve point: program-derived address.
		return domain.IdentifierPool
	}
	return domain.IdentifierMint
}
