package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tokengate/internal/fraud/metrics"
	"tokengate/internal/token"
	dErrors "tokengate/pkg/domainerrors"
)

// Aggregate weights. Must sum to 1. Symbol contributes its validity score
// directly; see the polarity note in evaluators.go.
const (
	logoWeight   = 0.4
	nameWeight   = 0.4
	symbolWeight = 0.2
)

// Thresholds holds the scoring cutoffs applied on top of the evaluator
// outputs. HighRisk drives the gate verdict; Similarity and Spam flag the
// individual signals on the assessment.
type Thresholds struct {
	HighRisk   float64 // overall score at or above this is high risk
	Similarity float64 // logo score above this marks the logo suspicious
	Spam       float64 // name score above this marks the name as spam
}

// Service is the risk aggregator: it fans out the three evaluators and
// combines their fallback-guaranteed results into one assessment.
type Service struct {
	logo   *LogoEvaluator
	name   *NameEvaluator
	symbol *SymbolEvaluator

	thresholds Thresholds
	logger     *slog.Logger
	metrics    *metrics.Metrics
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

func New(logo *LogoEvaluator, name *NameEvaluator, symbol *SymbolEvaluator, thresholds Thresholds, opts ...Option) (*Service, error) {
	if logo == nil {
		return nil, fmt.Errorf("logo evaluator is required")
	}
	if name == nil {
		return nil, fmt.Errorf("name evaluator is required")
	}
	if symbol == nil {
		return nil, fmt.Errorf("symbol evaluator is required")
	}
	if thresholds.HighRisk <= 0 || thresholds.HighRisk > 1 {
		return nil, fmt.Errorf("high risk threshold must be in (0,1], got %v", thresholds.HighRisk)
	}
	if thresholds.Similarity < 0 || thresholds.Similarity > 1 {
		return nil, fmt.Errorf("similarity threshold must be in [0,1], got %v", thresholds.Similarity)
	}
	if thresholds.Spam < 0 || thresholds.Spam > 1 {
		return nil, fmt.Errorf("spam threshold must be in [0,1], got %v", thresholds.Spam)
	}

	svc := &Service{
		logo:       logo,
		name:       name,
		symbol:     symbol,
		thresholds: thresholds,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Assess runs the three evaluators concurrently and joins on all of them.
// Evaluator failures never surface here: each evaluator substitutes its own
// fallback score before the join completes, so one sibling's fault cannot
// cancel or poison the others. The returned error covers only unexpected
// internal faults, which callers must treat as fail-closed.
func (s *Service) Assess(ctx context.Context, candidate token.Candidate) (assessment *token.RiskAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			assessment = nil
			err = dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("risk aggregation failed: %v", r))
		}
	}()

	start := time.Now()
	defer func() {
		s.metrics.ObserveAssessLatency(time.Since(start))
	}()

	var (
		logoScore, nameScore, symbolScore float64
		logoFellBack, nameFellBack        bool
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		logoScore, logoFellBack = s.logo.Evaluate(ctx, candidate.LogoRef)
	}()
	go func() {
		defer wg.Done()
		nameScore, nameFellBack = s.name.Evaluate(ctx, candidate.Name)
	}()
	go func() {
		defer wg.Done()
		symbolScore = s.symbol.Evaluate(candidate.Symbol)
	}()
	wg.Wait()

	overall := clamp(logoWeight*logoScore + nameWeight*nameScore + symbolWeight*symbolScore)

	assessment = &token.RiskAssessment{
		LogoScore:      logoScore,
		NameScore:      nameScore,
		SymbolScore:    symbolScore,
		OverallScore:   overall,
		IsHighRisk:     overall >= s.thresholds.HighRisk,
		LogoSuspicious: logoScore > s.thresholds.Similarity,
		NameSpam:       nameScore > s.thresholds.Spam,
		Signals: []token.RiskSignal{
			{Source: "logo", Score: logoScore, Weight: logoWeight, Fallback: logoFellBack},
			{Source: "name", Score: nameScore, Weight: nameWeight, Fallback: nameFellBack},
			{Source: "symbol", Score: symbolScore, Weight: symbolWeight},
		},
		EvaluatedAt: time.Now(),
	}

	s.logger.InfoContext(ctx, "risk assessment completed",
		"token_name", candidate.Name,
		"creator", candidate.CreatorWalletID,
		"logo_score", logoScore,
		"name_score", nameScore,
		"symbol_score", symbolScore,
		"overall_score", overall,
		"high_risk", assessment.IsHighRisk,
		"logo_suspicious", assessment.LogoSuspicious,
		"name_spam", assessment.NameSpam,
		"fallback_logo", logoFellBack,
		"fallback_name", nameFellBack,
	)

	return assessment, nil
}
