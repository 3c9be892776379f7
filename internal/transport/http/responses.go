package httptransport

import (
	"time"

	"tokengate/internal/token"
)

// CreateTokenResponse is returned for an allowed creation.
type CreateTokenResponse struct {
	TokenID    string     `json:"token_id"`
	CreatorID  string     `json:"creator_id"`
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	Assessment assessment `json:"assessment"`
}

// RejectionResponse is returned for a denied creation.
type RejectionResponse struct {
	Reason     string      `json:"reason"`
	Message    string      `json:"message,omitempty"`
	Assessment *assessment `json:"assessment,omitempty"`
}

type assessment struct {
	LogoScore      float64 `json:"logo_score"`
	NameScore      float64 `json:"name_score"`
	SymbolScore    float64 `json:"symbol_score"`
	OverallScore   float64 `json:"overall_score"`
	IsHighRisk     bool    `json:"is_high_risk"`
	LogoSuspicious bool    `json:"logo_suspicious"`
	NameSpam       bool    `json:"name_spam"`
}

func toAssessment(a *token.RiskAssessment) *assessment {
	if a == nil {
		return nil
	}
	return &assessment{
		LogoScore:      a.LogoScore,
		NameScore:      a.NameScore,
		SymbolScore:    a.SymbolScore,
		OverallScore:   a.OverallScore,
		IsHighRisk:     a.IsHighRisk,
		LogoSuspicious: a.LogoSuspicious,
		NameSpam:       a.NameSpam,
	}
}

// WalletResponse is the identity view returned by the wallet endpoints.
type WalletResponse struct {
	WalletAddress     string          `json:"wallet_address"`
	PerSourceVerified map[string]bool `json:"per_source_verified"`
	VerificationScore float64         `json:"verification_score"`
	IsVerifiedStrict  bool            `json:"is_verified_strict"`
	LastVerifiedAt    time.Time       `json:"last_verified_at"`
}

func toWalletResponse(identity *token.WalletIdentity) WalletResponse {
	return WalletResponse{
		WalletAddress:     identity.WalletAddress,
		PerSourceVerified: identity.PerSourceVerified,
		VerificationScore: identity.VerificationScore,
		IsVerifiedStrict:  identity.IsVerifiedStrict,
		LastVerifiedAt:    identity.LastVerifiedAt,
	}
}

// FraudSummaryResponse is the GET /wallets/{address}/fraud-summary body.
type FraudSummaryResponse struct {
	SuspiciousTokens       int     `json:"suspicious_tokens"`
	AverageSimilarityScore float64 `json:"average_similarity_score"`
	RiskLevel              string  `json:"risk_level"`
}
