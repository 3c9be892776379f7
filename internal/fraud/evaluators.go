package fraud

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tokengate/internal/fraud/metrics"
	"tokengate/internal/fraud/ports"
)

// maxRisk is the fail-closed fallback: when a remote check cannot complete,
// the evaluator reports maximal risk instead of propagating the failure.
const maxRisk = 1.0

// Logo sub-signal weights. Must sum to 1.
const (
	logoEmbeddingWeight  = 0.4
	logoVisionWeight     = 0.3
	logoModerationWeight = 0.3
)

// Name sub-signal weights. Must sum to 1.
const (
	nameSpamWeight     = 0.6
	nameToxicityWeight = 0.4
)

// Symbol validity penalties. Note the polarity: symbol validity is
// higher-is-better while logo and name scores are higher-is-worse, and the
// aggregate mixes them directly. Preserved from observed behavior pending
// stakeholder confirmation; do not "fix" silently.
const (
	symbolLengthPenalty   = 0.3
	symbolReservedPenalty = 0.5
)

// LogoEvaluator combines three remote image signals into one fraud score.
// Any sub-call failure collapses the whole evaluation to maximal risk.
type LogoEvaluator struct {
	embedding  ports.EmbeddingProvider
	vision     ports.VisionProvider
	moderation ports.ContentModerationProvider
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewLogoEvaluator(
	embedding ports.EmbeddingProvider,
	vision ports.VisionProvider,
	moderation ports.ContentModerationProvider,
	timeout time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *LogoEvaluator {
	return &LogoEvaluator{
		embedding:  embedding,
		vision:     vision,
		moderation: moderation,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

// Evaluate returns the weighted logo fraud score in [0,1]. Sub-signals are
// clipped to [0,1] before combination. Fail-closed: any sub-call failure or
// timeout returns maxRisk with fellBack set.
func (e *LogoEvaluator) Evaluate(ctx context.Context, logoRef string) (score float64, fellBack bool) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveEvaluatorLatency("logo", time.Since(start))
	}()

	var similarity, visionRisk, moderationRisk float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.callScore(gctx, "logo_embedding", e.embedding.LogoSimilarity, logoRef)
		similarity = v
		return err
	})
	g.Go(func() error {
		v, err := e.callScore(gctx, "logo_vision", e.vision.LogoRisk, logoRef)
		visionRisk = v
		return err
	})
	g.Go(func() error {
		v, err := e.callScore(gctx, "logo_moderation", e.moderation.ImageRisk, logoRef)
		moderationRisk = v
		return err
	})

	if err := g.Wait(); err != nil {
		e.metrics.IncrementFallback("logo")
		e.logger.WarnContext(ctx, "logo fraud check fell back to maximal risk",
			"logo_ref", logoRef,
			"substituted_score", maxRisk,
			"error", err,
		)
		return maxRisk, true
	}

	return clamp(logoEmbeddingWeight*similarity +
		logoVisionWeight*visionRisk +
		logoModerationWeight*moderationRisk), false
}

func (e *LogoEvaluator) callScore(
	ctx context.Context,
	source string,
	fn func(context.Context, string) (float64, error),
	input string,
) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	v, err := fn(ctx, input)
	e.metrics.ObserveEvaluatorLatency(source, time.Since(start))
	if err != nil {
		return 0, err
	}
	return clamp(v), nil
}

// NameEvaluator combines moderation spam probability and toxicity into one
// spam score. Fail-closed like the logo evaluator.
type NameEvaluator struct {
	spam     ports.SpamProvider
	toxicity ports.ToxicityProvider
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewNameEvaluator(
	spam ports.SpamProvider,
	toxicity ports.ToxicityProvider,
	timeout time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *NameEvaluator {
	return &NameEvaluator{
		spam:     spam,
		toxicity: toxicity,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Evaluate returns the weighted name spam score in [0,1], or maxRisk with
// fellBack set when either provider fails.
func (e *NameEvaluator) Evaluate(ctx context.Context, name string) (score float64, fellBack bool) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveEvaluatorLatency("name", time.Since(start))
	}()

	var spamProb, toxicity float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.callScore(gctx, e.spam.SpamProbability, name)
		spamProb = v
		return err
	})
	g.Go(func() error {
		v, err := e.callScore(gctx, e.toxicity.ToxicityScore, name)
		toxicity = v
		return err
	})

	if err := g.Wait(); err != nil {
		e.metrics.IncrementFallback("name")
		e.logger.WarnContext(ctx, "name spam check fell back to maximal risk",
			"token_name", name,
			"substituted_score", maxRisk,
			"error", err,
		)
		return maxRisk, true
	}

	return clamp(nameSpamWeight*spamProb + nameToxicityWeight*toxicity), false
}

func (e *NameEvaluator) callScore(
	ctx context.Context,
	fn func(context.Context, string) (float64, error),
	input string,
) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	v, err := fn(ctx, input)
	if err != nil {
		return 0, err
	}
	return clamp(v), nil
}

// SymbolEvaluator applies deterministic rules; no network calls.
type SymbolEvaluator struct {
	reserved map[string]struct{}
}

func NewSymbolEvaluator() *SymbolEvaluator {
	return &SymbolEvaluator{
		reserved: map[string]struct{}{
			"BTC":  {},
			"ETH":  {},
			"USDT": {},
		},
	}
}

// Evaluate returns a validity score: start at 1.0, subtract penalties for bad
// length and reserved symbols, floor at 0. Higher is better.
func (e *SymbolEvaluator) Evaluate(symbol string) float64 {
	score := 1.0

	if l := len(symbol); l < 3 || l > 5 {
		score -= symbolLengthPenalty
	}
	if _, ok := e.reserved[symbol]; ok {
		score -= symbolReservedPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}
