// Package ports defines the identity-check provider interfaces. One
// implementation exists per provider under verification/providers.
package ports

import (
	"context"
	"time"
)

// Attestation is a provider's verdict about a wallet.
type Attestation struct {
	Verified bool
	// Level carries provider-specific metadata (verification tier,
	// humanity score rendered as text). Informational only.
	Level string
}

// AttestationProvider answers whether a wallet's owner passed the provider's
// identity check.
type AttestationProvider interface {
	// Source names the provider in per-source verification maps.
	Source() string

	Verify(ctx context.Context, walletAddress string) (Attestation, error)
}

// TxHistory summarizes a wallet's on-chain activity.
type TxHistory struct {
	Count     int
	FirstSeen time.Time
}

// TransactionHistoryProvider fetches a wallet's transaction history summary.
type TransactionHistoryProvider interface {
	History(ctx context.Context, walletAddress string) (TxHistory, error)
}
