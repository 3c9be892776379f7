// Package httptransport exposes the creation gate and wallet endpoints
// over JSON.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tokengate/internal/gate"
	"tokengate/internal/token"
	"tokengate/internal/verification"
	dErrors "tokengate/pkg/domainerrors"
	"tokengate/pkg/platform/httputil"
)

// Gate runs the full creation pipeline.
type Gate interface {
	CreateToken(ctx context.Context, candidate token.Candidate) (*gate.Decision, error)
}

// Verifier runs identity checks and derives the weighted wallet identity.
type Verifier interface {
	VerifyWallet(ctx context.Context, walletAddress string) (*verification.Result, error)
	CalculateVerificationScore(result *verification.Result) float64
	Identity(result *verification.Result) *token.WalletIdentity
}

// Ledger serves the wallet and fraud-history read models.
type Ledger interface {
	RegisterWallet(ctx context.Context, identity *token.WalletIdentity) error
	GetWallet(ctx context.Context, walletAddress string) (*token.WalletIdentity, error)
	AggregateFraud(ctx context.Context, walletAddress string) (*token.FraudSummary, error)
}

// Handler handles token creation and wallet endpoints.
type Handler struct {
	gate     Gate
	verifier Verifier
	ledger   Ledger
	logger   *slog.Logger
}

func NewHandler(gate Gate, verifier Verifier, ledger Ledger, logger *slog.Logger) *Handler {
	return &Handler{
		gate:     gate,
		verifier: verifier,
		ledger:   ledger,
		logger:   logger,
	}
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tokens", h.handleCreateToken)
	r.Post("/wallets/verify", h.handleVerifyWallet)
	r.Get("/wallets/{address}", h.handleGetWallet)
	r.Get("/wallets/{address}/fraud-summary", h.handleFraudSummary)
}

func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.DecodeJSON[CreateTokenRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create token request", "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.gate.CreateToken(ctx, req.candidate())
	if err != nil {
		h.logger.ErrorContext(ctx, "token creation failed", "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to create token"))
		return
	}

	if !decision.Allowed {
		httputil.WriteJSON(w, reasonStatus(decision.Reason), RejectionResponse{
			Reason:     string(decision.Reason),
			Message:    decision.Message,
			Assessment: toAssessment(decision.Assessment),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateTokenResponse{
		TokenID:    decision.Record.TokenID,
		CreatorID:  decision.Record.CreatorID,
		Name:       decision.Record.Name,
		Symbol:     decision.Record.Symbol,
		IsVerified: decision.Record.IsVerified,
		CreatedAt:  decision.Record.CreatedAt,
		Assessment: *toAssessment(decision.Assessment),
	})
}

func (h *Handler) handleVerifyWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.DecodeJSON[VerifyWalletRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid verify wallet request", "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	result, err := h.verifier.VerifyWallet(ctx, req.WalletAddress)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "wallet verification failed",
			"wallet", req.WalletAddress,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "wallet verification unavailable"))
		return
	}

	identity := h.verifier.Identity(result)
	identity.VerificationScore = h.verifier.CalculateVerificationScore(result)

	if err := h.ledger.RegisterWallet(ctx, identity); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist wallet identity",
			"wallet", req.WalletAddress,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register wallet"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWalletResponse(identity))
}

func (h *Handler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	identity, err := h.ledger.GetWallet(ctx, address)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load wallet", "wallet", address, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWalletResponse(identity))
}

func (h *Handler) handleFraudSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	summary, err := h.ledger.AggregateFraud(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "fraud aggregation failed", "wallet", address, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "fraud history unavailable"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FraudSummaryResponse{
		SuspiciousTokens:       summary.SuspiciousTokens,
		AverageSimilarityScore: summary.AverageSimilarityScore,
		RiskLevel:              summary.RiskLevel,
	})
}

func reasonStatus(reason gate.Reason) int {
	switch reason {
	case gate.ReasonValidationFailed:
		return http.StatusBadRequest
	case gate.ReasonNotVerified, gate.ReasonHighRisk:
		return http.StatusForbidden
	case gate.ReasonRateLimited, gate.ReasonLimitExceeded:
		return http.StatusTooManyRequests
	case gate.ReasonDetectionUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
