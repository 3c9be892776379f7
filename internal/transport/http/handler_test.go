package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tokengate/internal/gate"
	"tokengate/internal/token"
	"tokengate/internal/verification"
	dErrors "tokengate/pkg/domainerrors"
)

type stubGate struct {
	decision *gate.Decision
	err      error
}

func (g *stubGate) CreateToken(context.Context, token.Candidate) (*gate.Decision, error) {
	return g.decision, g.err
}

type stubVerifier struct {
	result *verification.Result
	err    error
	score  float64
}

func (v *stubVerifier) VerifyWallet(_ context.Context, addr string) (*verification.Result, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.result, nil
}

func (v *stubVerifier) CalculateVerificationScore(*verification.Result) float64 {
	return v.score
}

func (v *stubVerifier) Identity(result *verification.Result) *token.WalletIdentity {
	return &token.WalletIdentity{
		WalletAddress:     result.WalletAddress,
		PerSourceVerified: result.PerSource,
		IsVerifiedStrict:  result.StrictlyOK,
		LastVerifiedAt:    result.CheckedAt,
	}
}

type stubLedger struct {
	registered *token.WalletIdentity
	wallet     *token.WalletIdentity
	walletErr  error
	summary    *token.FraudSummary
	summaryErr error
}

func (l *stubLedger) RegisterWallet(_ context.Context, identity *token.WalletIdentity) error {
	l.registered = identity
	return nil
}

func (l *stubLedger) GetWallet(context.Context, string) (*token.WalletIdentity, error) {
	if l.walletErr != nil {
		return nil, l.walletErr
	}
	return l.wallet, nil
}

func (l *stubLedger) AggregateFraud(context.Context, string) (*token.FraudSummary, error) {
	if l.summaryErr != nil {
		return nil, l.summaryErr
	}
	return l.summary, nil
}

type HandlerSuite struct {
	suite.Suite
	gate     *stubGate
	verifier *stubVerifier
	ledger   *stubLedger
	server   *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.gate = &stubGate{}
	s.verifier = &stubVerifier{}
	s.ledger = &stubLedger{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(s.gate, s.verifier, s.ledger, log)
	s.server = httptest.NewServer(NewRouter(handler, log, nil))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) post(path string, body any) *http.Response {
	b, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(b))
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) get(path string) *http.Response {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *HandlerSuite) createRequest() CreateTokenRequest {
	return CreateTokenRequest{
		Name:            "Moon Token",
		Symbol:          "MOON",
		TotalSupply:     1_000_000,
		LogoRef:         "https://cdn.example.com/moon.png",
		CreatorWalletID: "0xcreator",
	}
}

func (s *HandlerSuite) TestCreateToken() {
	s.Run("allowed creation returns 201", func() {
		s.gate.decision = &gate.Decision{
			Allowed: true,
			Reason:  gate.ReasonOK,
			Assessment: &token.RiskAssessment{
				OverallScore: 0.2,
			},
			Record: &token.CreationRecord{
				TokenID:    "tok-1",
				CreatorID:  "0xcreator",
				Name:       "Moon Token",
				Symbol:     "MOON",
				FraudScore: 0.2,
				IsVerified: true,
				CreatedAt:  time.Now(),
			},
		}

		resp := s.post("/tokens", s.createRequest())
		s.Equal(http.StatusCreated, resp.StatusCode)

		var body CreateTokenResponse
		s.decode(resp, &body)
		s.Equal("tok-1", body.TokenID)
		s.True(body.IsVerified)
		s.InDelta(0.2, body.Assessment.OverallScore, 1e-9)
	})

	s.Run("high risk rejection returns 403 with assessment", func() {
		s.gate.decision = &gate.Decision{
			Allowed: false,
			Reason:  gate.ReasonHighRisk,
			Message: "token rejected as high risk",
			Assessment: &token.RiskAssessment{
				OverallScore: 0.8,
				IsHighRisk:   true,
			},
		}

		resp := s.post("/tokens", s.createRequest())
		s.Equal(http.StatusForbidden, resp.StatusCode)

		var body RejectionResponse
		s.decode(resp, &body)
		s.Equal("high_risk", body.Reason)
		s.Require().NotNil(body.Assessment)
		s.True(body.Assessment.IsHighRisk)
	})

	s.Run("rate limited rejection returns 429", func() {
		s.gate.decision = &gate.Decision{
			Allowed: false,
			Reason:  gate.ReasonRateLimited,
			Message: "weekly token creation limit reached",
		}

		resp := s.post("/tokens", s.createRequest())
		resp.Body.Close()
		s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	})

	s.Run("detection unavailable returns 503", func() {
		s.gate.decision = &gate.Decision{
			Allowed: false,
			Reason:  gate.ReasonDetectionUnavailable,
			Message: "fraud detection unavailable",
		}

		resp := s.post("/tokens", s.createRequest())
		resp.Body.Close()
		s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	})

	s.Run("malformed body returns 400", func() {
		resp, err := http.Post(s.server.URL+"/tokens", "application/json", bytes.NewReader([]byte("{not json")))
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("gate internal error returns opaque 500", func() {
		s.gate.decision = nil
		s.gate.err = errors.New("pq: connection reset")

		resp := s.post("/tokens", s.createRequest())
		s.Equal(http.StatusInternalServerError, resp.StatusCode)

		var body map[string]string
		s.decode(resp, &body)
		s.Equal("internal_error", body["error"])
		s.Empty(body["error_description"], "internal details must not leak")

		s.gate.err = nil
	})
}

func (s *HandlerSuite) TestVerifyWallet() {
	s.Run("successful verification persists and returns the identity", func() {
		s.verifier.result = &verification.Result{
			WalletAddress: "0xwallet",
			PerSource:     map[string]bool{"worldcoin": true, "civic": true},
			StrictlyOK:    true,
			CheckedAt:     time.Now(),
		}
		s.verifier.score = 0.7

		resp := s.post("/wallets/verify", VerifyWalletRequest{WalletAddress: "0xwallet"})
		s.Equal(http.StatusOK, resp.StatusCode)

		var body WalletResponse
		s.decode(resp, &body)
		s.Equal("0xwallet", body.WalletAddress)
		s.True(body.IsVerifiedStrict)
		s.InDelta(0.7, body.VerificationScore, 1e-9)

		s.Require().NotNil(s.ledger.registered)
		s.InDelta(0.7, s.ledger.registered.VerificationScore, 1e-9)
	})

	s.Run("empty address returns 400", func() {
		s.verifier.err = dErrors.New(dErrors.CodeBadRequest, "wallet address is required")

		resp := s.post("/wallets/verify", VerifyWalletRequest{})
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)

		s.verifier.err = nil
	})

	s.Run("verification failure returns 503", func() {
		s.verifier.err = errors.New("provider meltdown")

		resp := s.post("/wallets/verify", VerifyWalletRequest{WalletAddress: "0xwallet"})
		resp.Body.Close()
		s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

		s.verifier.err = nil
	})
}

func (s *HandlerSuite) TestGetWallet() {
	s.Run("known wallet returns the identity", func() {
		s.ledger.wallet = &token.WalletIdentity{
			WalletAddress:     "0xwallet",
			PerSourceVerified: map[string]bool{"civic": true},
			VerificationScore: 0.3,
			LastVerifiedAt:    time.Now(),
		}

		resp := s.get("/wallets/0xwallet")
		s.Equal(http.StatusOK, resp.StatusCode)

		var body WalletResponse
		s.decode(resp, &body)
		s.Equal("0xwallet", body.WalletAddress)
	})

	s.Run("unknown wallet returns 404", func() {
		s.ledger.walletErr = dErrors.New(dErrors.CodeNotFound, "wallet not registered")

		resp := s.get("/wallets/0xnobody")
		resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)

		s.ledger.walletErr = nil
	})
}

func (s *HandlerSuite) TestFraudSummary() {
	s.Run("returns the aggregated summary", func() {
		s.ledger.summary = &token.FraudSummary{
			SuspiciousTokens:       4,
			AverageSimilarityScore: 0.55,
			RiskLevel:              "HIGH",
		}

		resp := s.get("/wallets/0xwallet/fraud-summary")
		s.Equal(http.StatusOK, resp.StatusCode)

		var body FraudSummaryResponse
		s.decode(resp, &body)
		s.Equal("HIGH", body.RiskLevel)
		s.Equal(4, body.SuspiciousTokens)
	})

	s.Run("aggregation failure returns 503", func() {
		s.ledger.summaryErr = errors.New("pq: connection reset")

		resp := s.get("/wallets/0xwallet/fraud-summary")
		resp.Body.Close()
		s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

		s.ledger.summaryErr = nil
	})
}

func (s *HandlerSuite) TestHealthz() {
	s.Run("healthy", func() {
		resp := s.get("/healthz")
		s.Equal(http.StatusOK, resp.StatusCode)

		var body map[string]string
		s.decode(resp, &body)
		s.Equal("ok", body["status"])
	})

	s.Run("degraded backing service", func() {
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := NewHandler(s.gate, s.verifier, s.ledger, log)
		server := httptest.NewServer(NewRouter(handler, log, map[string]HealthChecker{
			"postgres": func() error { return errors.New("connection refused") },
		}))
		defer server.Close()

		resp, err := http.Get(server.URL + "/healthz")
		s.Require().NoError(err)
		s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

		var body map[string]string
		s.decode(resp, &body)
		s.Equal("degraded", body["status"])
	})
}
