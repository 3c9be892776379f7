// Package ledger owns the transactional record of issued tokens, fraud logs,
// and wallet identities. It enforces the per-creator lifetime cap at write
// time; the gate's weekly window is a separate, independently-enforced policy.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tokengate/internal/ledger/ports"
	"tokengate/internal/token"
	dErrors "tokengate/pkg/domainerrors"
	"tokengate/pkg/platform/sentinel"
)

// Fraud-log aggregation window and risk ladder.
const (
	aggregateLogCount    = 10
	highRiskSuspicious   = 3 // more than this many suspicious rows is HIGH
	mediumRiskSuspicious = 1 // more than this is MEDIUM
)

type Service struct {
	creations ports.CreationStore
	fraudLogs ports.FraudLogStore
	wallets   ports.WalletStore

	lifetimeCap         int
	verifiedThreshold   float64
	suspiciousThreshold float64

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(creations ports.CreationStore, fraudLogs ports.FraudLogStore, wallets ports.WalletStore, lifetimeCap int, verifiedThreshold, suspiciousThreshold float64, opts ...Option) (*Service, error) {
	if creations == nil {
		return nil, fmt.Errorf("creation store is required")
	}
	if fraudLogs == nil {
		return nil, fmt.Errorf("fraud log store is required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet store is required")
	}
	if lifetimeCap < 1 {
		return nil, fmt.Errorf("lifetime cap must be positive, got %d", lifetimeCap)
	}

	svc := &Service{
		creations:           creations,
		fraudLogs:           fraudLogs,
		wallets:             wallets,
		lifetimeCap:         lifetimeCap,
		verifiedThreshold:   verifiedThreshold,
		suspiciousThreshold: suspiciousThreshold,
		logger:              slog.Default(),
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// RecordTokenCreation commits an assessed candidate against the lifetime cap.
// The count check and both writes happen inside one store transaction, so two
// concurrent requests for the same creator at cap-1 produce exactly one
// winner. On a cap hit nothing is written.
func (s *Service) RecordTokenCreation(ctx context.Context, candidate token.Candidate, assessment *token.RiskAssessment) (*token.CreationRecord, error) {
	if assessment == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "assessment is required before recording a creation")
	}

	now := s.now()
	record := &token.CreationRecord{
		TokenID:    uuid.NewString(),
		CreatorID:  candidate.CreatorWalletID,
		Name:       candidate.Name,
		Symbol:     candidate.Symbol,
		FraudScore: assessment.OverallScore,
		IsVerified: assessment.OverallScore < s.verifiedThreshold,
		CreatedAt:  now,
	}
	fraudLog := s.fraudLog(candidate, assessment, now)

	err := s.creations.CreateWithinCap(ctx, record, fraudLog, s.lifetimeCap)
	if err != nil {
		if errors.Is(err, sentinel.ErrLimitExceeded) {
			s.logger.InfoContext(ctx, "lifetime creation cap reached",
				"creator", candidate.CreatorWalletID,
				"cap", s.lifetimeCap,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeLimitExceeded, "maximum token creation limit reached")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record token creation")
	}

	return record, nil
}

// AppendFraudLog records an assessment for a candidate that was evaluated but
// not committed (the gate calls this on high-risk rejections).
func (s *Service) AppendFraudLog(ctx context.Context, candidate token.Candidate, assessment *token.RiskAssessment) error {
	if err := s.fraudLogs.Append(ctx, s.fraudLog(candidate, assessment, s.now())); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append fraud log")
	}
	return nil
}

// RegisterWallet upserts the recomputed identity for a wallet.
func (s *Service) RegisterWallet(ctx context.Context, identity *token.WalletIdentity) error {
	if identity == nil || identity.WalletAddress == "" {
		return dErrors.New(dErrors.CodeBadRequest, "wallet identity is required")
	}
	if err := s.wallets.Upsert(ctx, identity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register wallet")
	}
	return nil
}

// GetWallet returns the persisted identity for a wallet.
func (s *Service) GetWallet(ctx context.Context, walletAddress string) (*token.WalletIdentity, error) {
	identity, err := s.wallets.Get(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "wallet not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wallet")
	}
	return identity, nil
}

// AggregateFraud summarizes a wallet's most recent fraud logs into a coarse
// risk level.
func (s *Service) AggregateFraud(ctx context.Context, walletAddress string) (*token.FraudSummary, error) {
	logs, err := s.fraudLogs.RecentByWallet(ctx, walletAddress, aggregateLogCount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fraud logs")
	}

	summary := &token.FraudSummary{RiskLevel: "LOW"}
	if len(logs) == 0 {
		return summary, nil
	}

	var similaritySum float64
	for _, l := range logs {
		if l.IsSuspicious {
			summary.SuspiciousTokens++
		}
		similaritySum += l.SimilarityScore
	}
	summary.AverageSimilarityScore = similaritySum / float64(len(logs))

	switch {
	case summary.SuspiciousTokens > highRiskSuspicious:
		summary.RiskLevel = "HIGH"
	case summary.SuspiciousTokens > mediumRiskSuspicious:
		summary.RiskLevel = "MEDIUM"
	}

	return summary, nil
}

func (s *Service) fraudLog(candidate token.Candidate, assessment *token.RiskAssessment, at time.Time) *token.FraudLog {
	return &token.FraudLog{
		WalletAddress:   candidate.CreatorWalletID,
		TokenName:       candidate.Name,
		SimilarityScore: assessment.LogoScore,
		SpamScore:       assessment.NameScore,
		IsSuspicious:    assessment.OverallScore >= s.suspiciousThreshold,
		CreatedAt:       at,
	}
}
