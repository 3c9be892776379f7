// Package civic backs an attestation provider port with the Civic wallet
// verification API.
package civic

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/verification/ports"
)

const defaultBaseURL = "https://api.civic.me"

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
	return "civic"
}

type verifyResponse struct {
	IsVerified bool   `json:"isVerified"`
	Level      string `json:"level"`
}

// Verify asks Civic for the wallet's verification status.
func (c *Client) Verify(ctx context.Context, walletAddress string) (ports.Attestation, error) {
	var out verifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"walletAddress": walletAddress,
			"apiKey":        c.apiKey,
		}).
		SetResult(&out).
		Get("/wallet-verification")
	if err != nil {
		return ports.Attestation{}, fmt.Errorf("civic verify: %w", err)
	}
	if resp.IsError() {
		return ports.Attestation{}, fmt.Errorf("civic verify: status %d", resp.StatusCode())
	}

	return ports.Attestation{
		Verified: out.IsVerified,
		Level:    out.Level,
	}, nil
}
