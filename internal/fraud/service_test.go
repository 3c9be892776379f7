package fraud

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tokengate/internal/token"
)

// Stub providers return fixed scores or errors. Provider failures must stay
// invisible to callers beyond their effect on the substituted score.

type stubScore struct {
	score float64
	err   error
	calls int
}

func (s *stubScore) get(context.Context, string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

type stubEmbedding struct{ stubScore }

func (s *stubEmbedding) LogoSimilarity(ctx context.Context, ref string) (float64, error) {
	return s.get(ctx, ref)
}

type stubVision struct{ stubScore }

func (s *stubVision) LogoRisk(ctx context.Context, ref string) (float64, error) {
	return s.get(ctx, ref)
}

type stubContentMod struct{ stubScore }

func (s *stubContentMod) ImageRisk(ctx context.Context, ref string) (float64, error) {
	return s.get(ctx, ref)
}

type stubSpam struct{ stubScore }

func (s *stubSpam) SpamProbability(ctx context.Context, name string) (float64, error) {
	return s.get(ctx, name)
}

type stubToxicity struct{ stubScore }

func (s *stubToxicity) ToxicityScore(ctx context.Context, name string) (float64, error) {
	return s.get(ctx, name)
}

type FraudServiceSuite struct {
	suite.Suite
	embedding  *stubEmbedding
	vision     *stubVision
	contentMod *stubContentMod
	spam       *stubSpam
	toxicity   *stubToxicity
	service    *Service
}

func TestFraudServiceSuite(t *testing.T) {
	suite.Run(t, new(FraudServiceSuite))
}

func (s *FraudServiceSuite) SetupTest() {
	s.embedding = &stubEmbedding{}
	s.vision = &stubVision{}
	s.contentMod = &stubContentMod{}
	s.spam = &stubSpam{}
	s.toxicity = &stubToxicity{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	timeout := 100 * time.Millisecond

	logo := NewLogoEvaluator(s.embedding, s.vision, s.contentMod, timeout, log, nil)
	name := NewNameEvaluator(s.spam, s.toxicity, timeout, log, nil)

	var err error
	s.service, err = New(logo, name, NewSymbolEvaluator(),
		Thresholds{HighRisk: 0.5, Similarity: 0.85, Spam: 0.7},
		WithLogger(log),
	)
	s.Require().NoError(err)
}

func (s *FraudServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *FraudServiceSuite) candidate(symbol string) token.Candidate {
	return token.Candidate{
		Name:            "Moon Token",
		Symbol:          symbol,
		TotalSupply:     1_000_000,
		LogoRef:         "https://cdn.example.com/moon.png",
		CreatorWalletID: "0xabc",
	}
}

func (s *FraudServiceSuite) TestSymbolValidity() {
	sym := NewSymbolEvaluator()

	s.Run("reserved symbol of valid length", func() {
		s.InDelta(0.5, sym.Evaluate("BTC"), 1e-9)
	})

	s.Run("short unreserved symbol takes only length penalty", func() {
		s.InDelta(0.7, sym.Evaluate("AB"), 1e-9)
	})

	s.Run("valid unreserved symbol is fully valid", func() {
		s.InDelta(1.0, sym.Evaluate("XYZAB"), 1e-9)
	})

	s.Run("score never goes negative", func() {
		s.GreaterOrEqual(sym.Evaluate(""), 0.0)
	})
}

func (s *FraudServiceSuite) TestLogoEvaluator() {
	ctx := context.Background()

	s.Run("combines sub-signals with fixed weights", func() {
		s.embedding.score = 0.5
		s.vision.score = 0.2
		s.contentMod.score = 0.8
		score, fellBack := s.service.logo.Evaluate(ctx, "logo")
		s.InDelta(0.4*0.5+0.3*0.2+0.3*0.8, score, 1e-9)
		s.False(fellBack)
	})

	s.Run("clips sub-signals before combination", func() {
		s.embedding.score = 1.7
		s.vision.score = -0.3
		s.contentMod.score = 0.5
		score, _ := s.service.logo.Evaluate(ctx, "logo")
		s.InDelta(0.4*1.0+0.3*0.0+0.3*0.5, score, 1e-9)
	})

	s.Run("any sub-call failure returns exactly maximal risk", func() {
		s.embedding.score = 0.0
		s.contentMod.score = 0.0
		s.vision.err = errors.New("vision unreachable")
		score, fellBack := s.service.logo.Evaluate(ctx, "logo")
		s.Equal(1.0, score)
		s.True(fellBack)
	})
}

func (s *FraudServiceSuite) TestNameEvaluator() {
	ctx := context.Background()

	s.Run("combines spam and toxicity with fixed weights", func() {
		s.spam.score = 0.5
		s.toxicity.score = 0.25
		score, fellBack := s.service.name.Evaluate(ctx, "Moon Token")
		s.InDelta(0.6*0.5+0.4*0.25, score, 1e-9)
		s.False(fellBack)
	})

	s.Run("provider failure returns exactly maximal risk", func() {
		s.spam.err = errors.New("moderation unreachable")
		s.toxicity.score = 0.0
		score, fellBack := s.service.name.Evaluate(ctx, "Moon Token")
		s.Equal(1.0, score)
		s.True(fellBack)
	})
}

func (s *FraudServiceSuite) TestAssess() {
	ctx := context.Background()

	s.Run("overall score follows the weighted formula", func() {
		s.embedding.score = 0.5
		s.vision.score = 0.5
		s.contentMod.score = 0.5
		s.spam.score = 0.5
		s.toxicity.score = 0.5

		a, err := s.service.Assess(ctx, s.candidate("XYZAB"))
		s.Require().NoError(err)

		s.InDelta(0.5, a.LogoScore, 1e-9)
		s.InDelta(0.5, a.NameScore, 1e-9)
		s.InDelta(1.0, a.SymbolScore, 1e-9)
		s.InDelta(0.4*0.5+0.4*0.5+0.2*1.0, a.OverallScore, 1e-9)
		s.True(a.IsHighRisk, "0.6 is at or above the 0.5 threshold")
		s.False(a.EvaluatedAt.IsZero())
	})

	s.Run("high risk boundary is inclusive", func() {
		// logo=0.75, name=0.25, reserved symbol=0.5 -> 0.3 + 0.1 + 0.1 = 0.5
		s.embedding.score = 0.75
		s.vision.score = 0.75
		s.contentMod.score = 0.75
		s.spam.score = 0.25
		s.toxicity.score = 0.25

		a, err := s.service.Assess(ctx, s.candidate("BTC"))
		s.Require().NoError(err)
		s.InDelta(0.5, a.OverallScore, 1e-9)
		s.True(a.IsHighRisk)
	})

	s.Run("below threshold is not high risk", func() {
		s.embedding.score = 0.2
		s.vision.score = 0.2
		s.contentMod.score = 0.2
		s.spam.score = 0.2
		s.toxicity.score = 0.2

		a, err := s.service.Assess(ctx, s.candidate("AB")) // symbol 0.7
		s.Require().NoError(err)
		s.InDelta(0.4*0.2+0.4*0.2+0.2*0.7, a.OverallScore, 1e-9)
		s.False(a.IsHighRisk)
	})

	s.Run("provider failure is invisible beyond the substituted score", func() {
		s.embedding.err = errors.New("embeddings down")
		s.spam.score = 0.0
		s.toxicity.score = 0.0

		a, err := s.service.Assess(ctx, s.candidate("XYZAB"))
		s.Require().NoError(err, "provider failures must not surface to callers")
		s.Equal(1.0, a.LogoScore, "logo evaluator fails closed")
		s.Equal(0.0, a.NameScore, "sibling evaluator is not poisoned")

		s.Require().Len(a.Signals, 3)
		s.True(a.Signals[0].Fallback, "substituted logo score is marked")
		s.False(a.Signals[1].Fallback)
		s.False(a.Signals[2].Fallback)
	})

	s.Run("per-signal flags follow the similarity and spam thresholds", func() {
		s.embedding.score = 0.9
		s.vision.score = 0.9
		s.contentMod.score = 0.9
		s.spam.score = 0.7
		s.toxicity.score = 0.7

		a, err := s.service.Assess(ctx, s.candidate("XYZAB"))
		s.Require().NoError(err)
		s.True(a.LogoSuspicious, "0.9 is above the 0.85 similarity threshold")
		s.False(a.NameSpam, "exactly the 0.7 spam threshold does not flag")

		s.spam.score = 0.71
		s.toxicity.score = 0.71
		a, err = s.service.Assess(ctx, s.candidate("XYZAB"))
		s.Require().NoError(err)
		s.True(a.NameSpam)
	})

	s.Run("signals carry the evaluator scores and weights", func() {
		s.embedding.score = 0.5
		s.vision.score = 0.5
		s.contentMod.score = 0.5
		s.spam.score = 0.25
		s.toxicity.score = 0.25

		a, err := s.service.Assess(ctx, s.candidate("AB"))
		s.Require().NoError(err)

		s.Require().Len(a.Signals, 3)
		s.Equal("logo", a.Signals[0].Source)
		s.InDelta(0.5, a.Signals[0].Score, 1e-9)
		s.InDelta(0.4, a.Signals[0].Weight, 1e-9)
		s.Equal("name", a.Signals[1].Source)
		s.InDelta(0.25, a.Signals[1].Score, 1e-9)
		s.Equal("symbol", a.Signals[2].Source)
		s.InDelta(0.7, a.Signals[2].Score, 1e-9)
		s.InDelta(0.2, a.Signals[2].Weight, 1e-9)
	})

	s.Run("overall score is clamped to the unit interval", func() {
		s.embedding.score = 1
		s.vision.score = 1
		s.contentMod.score = 1
		s.spam.score = 1
		s.toxicity.score = 1

		a, err := s.service.Assess(ctx, s.candidate("XYZAB"))
		s.Require().NoError(err)
		s.LessOrEqual(a.OverallScore, 1.0)
	})
}

func (s *FraudServiceSuite) TestNew() {
	valid := Thresholds{HighRisk: 0.5, Similarity: 0.85, Spam: 0.7}

	s.Run("nil evaluators are rejected", func() {
		_, err := New(nil, s.service.name, s.service.symbol, valid)
		s.Error(err)
	})

	s.Run("high risk threshold outside unit interval is rejected", func() {
		_, err := New(s.service.logo, s.service.name, s.service.symbol,
			Thresholds{HighRisk: 1.5, Similarity: 0.85, Spam: 0.7})
		s.Error(err)
	})

	s.Run("similarity threshold outside unit interval is rejected", func() {
		_, err := New(s.service.logo, s.service.name, s.service.symbol,
			Thresholds{HighRisk: 0.5, Similarity: -0.1, Spam: 0.7})
		s.Error(err)
	})

	s.Run("spam threshold outside unit interval is rejected", func() {
		_, err := New(s.service.logo, s.service.name, s.service.symbol,
			Thresholds{HighRisk: 0.5, Similarity: 0.85, Spam: 1.1})
		s.Error(err)
	})
}
