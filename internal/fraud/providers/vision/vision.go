// Package vision backs the vision provider port with the Google Vision
// SafeSearch endpoint.
package vision

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/fraud/ports"
)

const defaultBaseURL = "https://vision.googleapis.com"

// Client implements ports.VisionProvider over the images:annotate API.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.VisionProvider = (*Client)(nil)

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

type imageSource struct {
	ImageURI string `json:"imageUri"`
}

type annotateEntry struct {
	Image struct {
		Source imageSource `json:"source"`
	} `json:"image"`
	Features []feature `json:"features"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type safeSearchAnnotation struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
	Racy     string `json:"racy"`
}

type annotateResponse struct {
	Responses []struct {
		SafeSearch safeSearchAnnotation `json:"safeSearchAnnotation"`
	} `json:"responses"`
}

// likelihoodRisk maps SafeSearch likelihood buckets onto [0,1].
var likelihoodRisk = map[string]float64{
	"VERY_UNLIKELY": 0.0,
	"UNLIKELY":      0.2,
	"POSSIBLE":      0.5,
	"LIKELY":        0.8,
	"VERY_LIKELY":   1.0,
}

// LogoRisk returns the worst SafeSearch likelihood across the adult,
// violence, and racy dimensions as a risk score.
func (c *Client) LogoRisk(ctx context.Context, logoRef string) (float64, error) {
	var entry annotateEntry
	entry.Image.Source = imageSource{ImageURI: logoRef}
	entry.Features = []feature{{Type: "SAFE_SEARCH_DETECTION"}}

	var out annotateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(annotateRequest{Requests: []annotateEntry{entry}}).
		SetResult(&out).
		Post("/v1/images:annotate")
	if err != nil {
		return 0, fmt.Errorf("vision annotate: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("vision annotate: status %d", resp.StatusCode())
	}
	if len(out.Responses) == 0 {
		return 0, fmt.Errorf("vision annotate: empty response")
	}

	ann := out.Responses[0].SafeSearch
	risk := 0.0
	for _, likelihood := range []string{ann.Adult, ann.Violence, ann.Racy} {
		if v, ok := likelihoodRisk[likelihood]; ok && v > risk {
			risk = v
		}
	}
	return risk, nil
}
