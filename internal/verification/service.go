// Package verification aggregates the wallet identity checks. Two policies
// coexist and must stay separate: the strict boolean verdict gates token
// creation, the weighted score feeds wallet registration.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tokengate/internal/token"
	"tokengate/internal/verification/ports"
	dErrors "tokengate/pkg/domainerrors"
)

// Per-source verification map keys.
const (
	SourceTransactionHistory = "transaction_history"
)

// Weighted-score contributions. Capped at 1 after summing.
const (
	primaryAttestationWeight   = 0.4
	secondaryAttestationWeight = 0.3
	activeHistoryWeight        = 0.2
	establishedWalletWeight    = 0.1
)

// Thresholds for the two history-based signals. The strict verdict and the
// weighted score deliberately use different cutoffs.
const (
	strictMinTransactions = 5
	activeMinTransactions = 10
	establishedWalletAge  = 180 * 24 * time.Hour
)

// Result is one verification pass over a wallet. Recomputed per request,
// never cached.
type Result struct {
	WalletAddress string
	Primary       ports.Attestation
	Secondary     ports.Attestation
	History       ports.TxHistory
	PerSource     map[string]bool
	StrictlyOK    bool
	CheckedAt     time.Time
}

// Service runs the three identity checks and applies both policies.
type Service struct {
	primary   ports.AttestationProvider
	secondary ports.AttestationProvider
	history   ports.TransactionHistoryProvider
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides time.Now, for tests exercising wallet-age boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(primary, secondary ports.AttestationProvider, history ports.TransactionHistoryProvider, timeout time.Duration, opts ...Option) (*Service, error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("both attestation providers are required")
	}
	if history == nil {
		return nil, fmt.Errorf("transaction history provider is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("provider timeout must be positive")
	}

	svc := &Service{
		primary:   primary,
		secondary: secondary,
		history:   history,
		timeout:   timeout,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// VerifyWallet runs the three checks concurrently and applies the strict
// policy: every check must report verified, and an unreachable provider
// counts as not verified. One sibling's failure never cancels the others.
func (s *Service) VerifyWallet(ctx context.Context, walletAddress string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("wallet verification failed: %v", r))
		}
	}()

	if walletAddress == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "wallet address is required")
	}

	var (
		primary, secondary ports.Attestation
		history            ports.TxHistory
		historyReachable   bool
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		primary = s.attest(ctx, s.primary, walletAddress)
	}()
	go func() {
		defer wg.Done()
		secondary = s.attest(ctx, s.secondary, walletAddress)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		h, herr := s.history.History(cctx, walletAddress)
		if herr != nil {
			s.logger.WarnContext(ctx, "identity check fell back to not verified",
				"source", SourceTransactionHistory,
				"wallet_address", walletAddress,
				"error", herr,
			)
			return
		}
		history = h
		historyReachable = true
	}()
	wg.Wait()

	historyValid := historyReachable && history.Count > strictMinTransactions

	res = &Result{
		WalletAddress: walletAddress,
		Primary:       primary,
		Secondary:     secondary,
		History:       history,
		PerSource: map[string]bool{
			s.primary.Source():       primary.Verified,
			s.secondary.Source():     secondary.Verified,
			SourceTransactionHistory: historyValid,
		},
		StrictlyOK: primary.Verified && secondary.Verified && historyValid,
		CheckedAt:  s.now(),
	}
	return res, nil
}

// attest runs one attestation check with its own timeout, substituting the
// not-verified fallback on any failure.
func (s *Service) attest(ctx context.Context, p ports.AttestationProvider, walletAddress string) ports.Attestation {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	att, err := p.Verify(cctx, walletAddress)
	if err != nil {
		s.logger.WarnContext(ctx, "identity check fell back to not verified",
			"source", p.Source(),
			"wallet_address", walletAddress,
			"error", err,
		)
		return ports.Attestation{Verified: false}
	}
	return att
}

// CalculateVerificationScore applies the additive weighted policy. It is
// independent of the strict verdict and consumed by wallet registration only.
func (s *Service) CalculateVerificationScore(res *Result) float64 {
	score := 0.0

	if res.Primary.Verified {
		score += primaryAttestationWeight
	}
	if res.Secondary.Verified {
		score += secondaryAttestationWeight
	}
	if res.History.Count > activeMinTransactions {
		score += activeHistoryWeight
	}
	if !res.History.FirstSeen.IsZero() && s.now().Sub(res.History.FirstSeen) > establishedWalletAge {
		score += establishedWalletWeight
	}

	if score > 1 {
		return 1
	}
	return score
}

// Identity folds a verification pass into the persistable wallet identity.
func (s *Service) Identity(res *Result) *token.WalletIdentity {
	return &token.WalletIdentity{
		WalletAddress:     res.WalletAddress,
		PerSourceVerified: res.PerSource,
		VerificationScore: s.CalculateVerificationScore(res),
		IsVerifiedStrict:  res.StrictlyOK,
		LastVerifiedAt:    res.CheckedAt,
	}
}
