// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/silk2onion/paperlib/internal/httputil"
)

const (
	// DefaultBaseURL is the default OpenAI-compatible API root.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultModel is the default embedding model.
	DefaultModel = "text-embedding-3-small"

	// DefaultTimeout is the timeout for embedding requests.
	DefaultTimeout = 30 * time.Second

	// maxInputRunes caps the text sent per request. Longer abstracts are
	// truncated, not rejected.
	maxInputRunes = 6000

	apiPathEmbeddings = "/v1/embeddings"
)

// Client generates embeddings through an OpenAI-compatible HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	client     *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithMaxRetries sets the retry attempt count for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new embedding client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxRetries: 3,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModelName returns the model identifier sent with each request.
func (c *Client) ModelName() string { return c.model }

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding for the given text. Input is truncated to
// the provider's practical limit. Failures after retries return
// ErrUnavailable so callers can degrade instead of aborting.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: truncate(text)})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling embedding provider: %w (%v)", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained no vector: %w", ErrUnavailable)
	}
	return parsed.Data[0].Embedding, nil
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputRunes {
		return text
	}
	return string(runes[:maxInputRunes])
}
