// Package contentmod backs the content-moderation provider port with the
// Azure Content Moderator image evaluation endpoint.
package contentmod

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/fraud/ports"
)

// Client implements ports.ContentModerationProvider.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.ContentModerationProvider = (*Client)(nil)

// New creates a client against the given Content Moderator endpoint, e.g.
// https://<region>.api.cognitive.microsoft.com.
func New(apiKey, endpoint string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(endpoint),
		apiKey: apiKey,
	}
}

type evaluateResponse struct {
	AdultClassificationScore float64 `json:"AdultClassificationScore"`
	RacyClassificationScore  float64 `json:"RacyClassificationScore"`
}

// ImageRisk evaluates the logo URL and returns the higher of the adult and
// racy classification scores.
func (c *Client) ImageRisk(ctx context.Context, logoRef string) (float64, error) {
	var out evaluateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.apiKey).
		SetQueryParam("DataRepresentation", "URL").
		SetBody(map[string]string{"DataRepresentation": "URL", "Value": logoRef}).
		SetResult(&out).
		Post("/contentmoderator/moderate/v1.0/ProcessImage/Evaluate")
	if err != nil {
		return 0, fmt.Errorf("content moderation evaluate: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("content moderation evaluate: status %d", resp.StatusCode())
	}

	risk := out.AdultClassificationScore
	if out.RacyClassificationScore > risk {
		risk = out.RacyClassificationScore
	}
	return risk, nil
}
