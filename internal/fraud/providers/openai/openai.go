// Package openai backs the embedding-similarity and spam-moderation ports
// with the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"tokengate/internal/fraud/ports"
)

// Client implements the embedding and spam provider ports.
type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel

	// knownFraudEmbeddings are reference vectors for previously flagged
	// logos; similarity is the maximum cosine similarity against this set.
	knownFraudEmbeddings [][]float32
}

var (
	_ ports.EmbeddingProvider = (*Client)(nil)
	_ ports.SpamProvider      = (*Client)(nil)
)

// New creates an OpenAI-backed provider. knownFraud may be empty, in which
// case similarity is always zero until reference vectors are loaded.
func New(apiKey string, knownFraud [][]float32) *Client {
	return &Client{
		client:               openai.NewClient(apiKey),
		model:                openai.AdaEmbeddingV2,
		knownFraudEmbeddings: knownFraud,
	}
}

// LogoSimilarity embeds the logo reference and returns its maximum cosine
// similarity against the known-fraud set, clipped to [0,1].
func (c *Client) LogoSimilarity(ctx context.Context, logoRef string) (float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{logoRef},
		Model: c.model,
	})
	if err != nil {
		return 0, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("create embedding: empty response")
	}

	embedding := resp.Data[0].Embedding

	var best float64
	for _, ref := range c.knownFraudEmbeddings {
		if sim := cosineSimilarity(embedding, ref); sim > best {
			best = sim
		}
	}
	return best, nil
}

// SpamProbability runs the token name through the moderation endpoint. The
// moderation API has no dedicated spam category, so the highest category
// score stands in as the spam probability.
func (c *Client) SpamProbability(ctx context.Context, name string) (float64, error) {
	resp, err := c.client.Moderations(ctx, openai.ModerationRequest{
		Input: name,
	})
	if err != nil {
		return 0, fmt.Errorf("moderate token name: %w", err)
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("moderate token name: empty response")
	}

	scores := resp.Results[0].CategoryScores
	max := 0.0
	for _, v := range []float64{
		float64(scores.Hate),
		float64(scores.Harassment),
		float64(scores.SelfHarm),
		float64(scores.Sexual),
		float64(scores.Violence),
	} {
		if v > max {
			max = v
		}
	}
	return max, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
