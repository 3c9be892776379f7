// Package perspective backs the toxicity provider port with the Google
// Perspective comment-analysis API.
package perspective

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/fraud/ports"
)

const defaultBaseURL = "https://commentanalyzer.googleapis.com"

// Client implements ports.ToxicityProvider.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.ToxicityProvider = (*Client)(nil)

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

type analyzeRequest struct {
	Comment struct {
		Text string `json:"text"`
	} `json:"comment"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// ToxicityScore returns the TOXICITY summary score for the token name.
func (c *Client) ToxicityScore(ctx context.Context, name string) (float64, error) {
	var req analyzeRequest
	req.Comment.Text = name
	req.RequestedAttributes = map[string]struct{}{"TOXICITY": {}}

	var out analyzeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post("/v1alpha1/comments:analyze")
	if err != nil {
		return 0, fmt.Errorf("perspective analyze: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("perspective analyze: status %d", resp.StatusCode())
	}

	score, ok := out.AttributeScores["TOXICITY"]
	if !ok {
		return 0, fmt.Errorf("perspective analyze: missing toxicity score")
	}
	return score.SummaryScore.Value, nil
}
