// Package ports defines the store interfaces for the creation ledger.
// Memory and postgres implementations live under ledger/store and must stay
// behaviorally interchangeable.
package ports

import (
	"context"

	"tokengate/internal/token"
)

// CreationStore persists issued tokens under a per-creator lifetime cap.
type CreationStore interface {
	// CountByCreator returns the number of creation records for a creator.
	CountByCreator(ctx context.Context, creatorID string) (int, error)

	// CreateWithinCap atomically checks the creator's record count against
	// cap and, when below it, writes the creation record and its fraud log
	// in the same transaction. Returns sentinel.ErrLimitExceeded with zero
	// writes when the cap is reached; two concurrent calls racing at
	// cap-1 must produce exactly one winner.
	CreateWithinCap(ctx context.Context, record *token.CreationRecord, fraudLog *token.FraudLog, limit int) error
}

// FraudLogStore appends and reads audit rows. Rows are never mutated.
type FraudLogStore interface {
	Append(ctx context.Context, fraudLog *token.FraudLog) error

	// RecentByWallet returns up to limit rows, newest first.
	RecentByWallet(ctx context.Context, walletAddress string, limit int) ([]*token.FraudLog, error)
}

// WalletStore persists wallet identities, upserted by wallet address.
type WalletStore interface {
	Upsert(ctx context.Context, identity *token.WalletIdentity) error

	// Get returns sentinel.ErrNotFound for unknown wallets.
	Get(ctx context.Context, walletAddress string) (*token.WalletIdentity, error)
}
