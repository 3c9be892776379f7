package token

import "time"

// RiskSignal is one evaluator's contribution to an assessment. Produced fresh
// per evaluation, never cached.
type RiskSignal struct {
	Source   string
	Score    float64 // always in [0,1]
	Weight   float64
	Fallback bool // true when the score is a substituted fallback value
}

// RiskAssessment is the aggregated fraud verdict for one candidate. Created
// once per candidate and immutable afterwards. Signals holds one entry per
// evaluator in logo, name, symbol order.
type RiskAssessment struct {
	LogoScore      float64
	NameScore      float64
	SymbolScore    float64
	OverallScore   float64
	IsHighRisk     bool
	LogoSuspicious bool // logo score above the similarity threshold
	NameSpam       bool // name score above the spam threshold
	Signals        []RiskSignal
	EvaluatedAt    time.Time
}

// WalletIdentity is the recomputed verification state for a wallet. The
// persisted copy is upserted by wallet address.
type WalletIdentity struct {
	WalletAddress     string
	PerSourceVerified map[string]bool
	VerificationScore float64
	IsVerifiedStrict  bool
	LastVerifiedAt    time.Time
}

// CreationRecord is written exactly once per accepted candidate.
type CreationRecord struct {
	TokenID    string
	CreatorID  string
	Name       string
	Symbol     string
	FraudScore float64
	IsVerified bool
	CreatedAt  time.Time
}

// FraudLog is an append-only audit row, one per evaluated candidate.
type FraudLog struct {
	WalletAddress   string
	TokenName       string
	SimilarityScore float64
	SpamScore       float64
	IsSuspicious    bool
	CreatedAt       time.Time
}

// FraudSummary aggregates a wallet's recent fraud logs.
type FraudSummary struct {
	SuspiciousTokens       int
	AverageSimilarityScore float64
	RiskLevel              string // HIGH, MEDIUM, LOW
}
