// Package ports defines the provider interfaces consumed by the fraud
// evaluators. One implementation exists per vendor under fraud/providers,
// keeping the dispatch set closed at compile time.
package ports

import "context"

// EmbeddingProvider scores a logo's similarity to known fraudulent logos.
// Scores are in [0,1]; higher means more similar.
type EmbeddingProvider interface {
	LogoSimilarity(ctx context.Context, logoRef string) (float64, error)
}

// VisionProvider scores a logo's visual risk in [0,1].
type VisionProvider interface {
	LogoRisk(ctx context.Context, logoRef string) (float64, error)
}

// ContentModerationProvider scores a logo image's moderation risk in [0,1].
type ContentModerationProvider interface {
	ImageRisk(ctx context.Context, logoRef string) (float64, error)
}

// SpamProvider scores a token name's spam probability in [0,1].
type SpamProvider interface {
	SpamProbability(ctx context.Context, name string) (float64, error)
}

// ToxicityProvider scores a token name's toxicity in [0,1].
type ToxicityProvider interface {
	ToxicityScore(ctx context.Context, name string) (float64, error)
}
