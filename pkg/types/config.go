// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that call external services.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "paperlib/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the canonical SQLite store.
type StoreConfig struct {
	// Path is the SQLite database file; ":memory:" is valid for tests.
	Path string `json:"path" yaml:"path"`
}

// EmbeddingConfig holds settings for the embedding provider adapter.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the OpenAI-compatible API root (e.g. "https://api.openai.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates embedding requests.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the embedding model identifier (default "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// MaxRetries is the retry attempt count for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond caps the provider call rate; 0 disables the limiter.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// DedupeConfig holds tunables for identity resolution.
type DedupeConfig struct {
	// FuzzyThreshold is the minimum normalized-title similarity for a weak
	// match (default 0.9). Treated as a tunable, not a constant.
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
}

// SearchConfig holds settings for the semantic search service.
type SearchConfig struct {
	// TopK is the default result count (default 20).
	TopK int `json:"top_k" yaml:"top_k"`

	// StreamBatchSize is the number of hits per streamed batch (default 20).
	StreamBatchSize int `json:"stream_batch_size" yaml:"stream_batch_size"`

	// LexiconPath points at the semantic-group YAML file; empty uses the
	// built-in default lexicon.
	LexiconPath string `json:"lexicon_path,omitempty" yaml:"lexicon_path,omitempty"`

	// ActivationThreshold is the minimum fraction of a group's words that
	// must appear in the query for the group to activate (default 0,
	// meaning any single member word activates it).
	ActivationThreshold float64 `json:"activation_threshold" yaml:"activation_threshold"`
}

// CitationsConfig holds settings for citation ingestion.
type CitationsConfig struct {
	HTTPConfig `yaml:",inline"`

	// Sources lists enabled bibliographic providers (default crossref, openalex).
	Sources []string `json:"sources" yaml:"sources"`

	// PlaceholderConfidence is the edge confidence assigned when the cited
	// paper had to be created as a placeholder (default 0.5). Tunable.
	PlaceholderConfidence float64 `json:"placeholder_confidence" yaml:"placeholder_confidence"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// ReconcileConfig holds settings for the background embedding sweep.
type ReconcileConfig struct {
	// Interval between sweeps (default 10m).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// BatchLimit caps how many papers one sweep processes (default 100).
	BatchLimit int `json:"batch_limit" yaml:"batch_limit"`

	// Concurrency bounds parallel embedding calls within a sweep (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// Config groups all stage configurations.
type Config struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Dedupe    DedupeConfig    `json:"dedupe" yaml:"dedupe"`
	Search    SearchConfig    `json:"search" yaml:"search"`
	Citations CitationsConfig `json:"citations" yaml:"citations"`
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile"`
}
