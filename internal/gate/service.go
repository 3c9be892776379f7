// Package gate orchestrates the token creation pipeline: candidate
// validation, strict wallet verification, the rolling-window rate limit,
// risk assessment, and the ledger commit, in that order. Later checks never
// run once an earlier one rejects.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tokengate/internal/gate/metrics"
	"tokengate/internal/token"
	"tokengate/internal/verification"
	dErrors "tokengate/pkg/domainerrors"
)

// Reason labels a gate decision. Reasons are stable API values.
type Reason string

const (
	ReasonOK                   Reason = "ok"
	ReasonValidationFailed     Reason = "validation_failed"
	ReasonNotVerified          Reason = "not_verified"
	ReasonRateLimited          Reason = "rate_limited"
	ReasonHighRisk             Reason = "high_risk"
	ReasonLimitExceeded        Reason = "limit_exceeded"
	ReasonDetectionUnavailable Reason = "detection_unavailable"
)

// Decision is the gate's verdict on one creation request. Assessment is set
// whenever the risk stage ran; Record only on an allowed creation.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Message    string
	Assessment *token.RiskAssessment
	Record     *token.CreationRecord
}

// Verifier runs the strict identity policy for a wallet.
type Verifier interface {
	VerifyWallet(ctx context.Context, walletAddress string) (*verification.Result, error)
}

// RateLimiter enforces the rolling creation window.
type RateLimiter interface {
	Allow(ctx context.Context, creatorID string) error
	RecordCreation(ctx context.Context, creatorID string) error
}

// Assessor produces a risk assessment for a candidate.
type Assessor interface {
	Assess(ctx context.Context, candidate token.Candidate) (*token.RiskAssessment, error)
}

// Ledger commits creations and records rejected high-risk attempts.
type Ledger interface {
	RecordTokenCreation(ctx context.Context, candidate token.Candidate, assessment *token.RiskAssessment) (*token.CreationRecord, error)
	AppendFraudLog(ctx context.Context, candidate token.Candidate, assessment *token.RiskAssessment) error
}

type Service struct {
	verifier Verifier
	limiter  RateLimiter
	assessor Assessor
	ledger   Ledger
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(verifier Verifier, limiter RateLimiter, assessor Assessor, ledger Ledger, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if assessor == nil {
		return nil, fmt.Errorf("assessor is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	svc := &Service{
		verifier: verifier,
		limiter:  limiter,
		assessor: assessor,
		ledger:   ledger,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// CreateToken runs the full pipeline for one candidate. Policy rejections
// come back as a denied Decision with a nil error; a non-nil error means an
// infrastructure failure after all checks passed.
func (s *Service) CreateToken(ctx context.Context, candidate token.Candidate) (*Decision, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveGateLatency(time.Since(start))
	}()

	if err := candidate.Validate(); err != nil {
		return s.deny(ctx, candidate, ReasonValidationFailed, dErrors.MessageOf(err)), nil
	}

	result, err := s.verifier.VerifyWallet(ctx, candidate.CreatorWalletID)
	if err != nil {
		return s.deny(ctx, candidate, ReasonDetectionUnavailable, "wallet verification unavailable"), nil
	}
	if !result.StrictlyOK {
		return s.deny(ctx, candidate, ReasonNotVerified, "creator wallet is not verified"), nil
	}

	if err := s.limiter.Allow(ctx, candidate.CreatorWalletID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeRateLimited) {
			return s.deny(ctx, candidate, ReasonRateLimited, dErrors.MessageOf(err)), nil
		}
		return s.deny(ctx, candidate, ReasonDetectionUnavailable, "creation rate limiter unavailable"), nil
	}

	assessment, err := s.assessor.Assess(ctx, candidate)
	if err != nil {
		return s.deny(ctx, candidate, ReasonDetectionUnavailable, "fraud detection unavailable"), nil
	}

	if assessment.IsHighRisk {
		if logErr := s.ledger.AppendFraudLog(ctx, candidate, assessment); logErr != nil {
			s.logger.ErrorContext(ctx, "failed to log high-risk rejection",
				"creator", candidate.CreatorWalletID,
				"error", logErr,
			)
		}
		decision := s.deny(ctx, candidate, ReasonHighRisk, "token rejected as high risk")
		decision.Assessment = assessment
		return decision, nil
	}

	record, err := s.ledger.RecordTokenCreation(ctx, candidate, assessment)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeLimitExceeded) {
			decision := s.deny(ctx, candidate, ReasonLimitExceeded, dErrors.MessageOf(err))
			decision.Assessment = assessment
			return decision, nil
		}
		return nil, err
	}

	if err := s.limiter.RecordCreation(ctx, candidate.CreatorWalletID); err != nil {
		// The creation is already committed; losing one window event only
		// under-counts the limiter.
		s.logger.ErrorContext(ctx, "failed to record creation window event",
			"creator", candidate.CreatorWalletID,
			"error", err,
		)
	}

	s.metrics.IncrementDecision(string(ReasonOK))
	s.logger.InfoContext(ctx, "token creation allowed",
		"creator", candidate.CreatorWalletID,
		"token_id", record.TokenID,
		"fraud_score", assessment.OverallScore,
	)

	return &Decision{
		Allowed:    true,
		Reason:     ReasonOK,
		Assessment: assessment,
		Record:     record,
	}, nil
}

func (s *Service) deny(ctx context.Context, candidate token.Candidate, reason Reason, message string) *Decision {
	s.metrics.IncrementDecision(string(reason))
	s.logger.InfoContext(ctx, "token creation denied",
		"creator", candidate.CreatorWalletID,
		"reason", string(reason),
	)
	return &Decision{
		Allowed: false,
		Reason:  reason,
		Message: message,
	}
}
