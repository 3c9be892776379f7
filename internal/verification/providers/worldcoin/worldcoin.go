// Package worldcoin backs an attestation provider port with the Worldcoin
// proof-of-personhood API.
package worldcoin

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/verification/ports"
)

const defaultBaseURL = "https://id.worldcoin.org"

// Client implements ports.AttestationProvider.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.AttestationProvider = (*Client)(nil)

func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, defaultBaseURL)
}

// NewWithBaseURL exists for tests pointing at a local server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
	}
}

func (c *Client) Source() string {
	return "worldcoin"
}

type verifyRequest struct {
	WalletAddress string `json:"walletAddress"`
	APIKey        string `json:"apiKey"`
}

type verifyResponse struct {
	Verified      bool    `json:"verified"`
	HumanityScore float64 `json:"humanityScore"`
}

// Verify asks Worldcoin whether the wallet belongs to a verified human.
func (c *Client) Verify(ctx context.Context, walletAddress string) (ports.Attestation, error) {
	var out verifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(verifyRequest{WalletAddress: walletAddress, APIKey: c.apiKey}).
		SetResult(&out).
		Post("/api/v1/verify")
	if err != nil {
		return ports.Attestation{}, fmt.Errorf("worldcoin verify: %w", err)
	}
	if resp.IsError() {
		return ports.Attestation{}, fmt.Errorf("worldcoin verify: status %d", resp.StatusCode())
	}

	return ports.Attestation{
		Verified: out.Verified,
		Level:    fmt.Sprintf("humanity=%.2f", out.HumanityScore),
	}, nil
}
