// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/citations"
	"github.com/silk2onion/paperlib/internal/dedupe"
	"github.com/silk2onion/paperlib/internal/embedding"
	"github.com/silk2onion/paperlib/internal/lexicon"
	"github.com/silk2onion/paperlib/internal/secrets"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

const defaultUserAgent = "paperlib/0.1"

func setConfigDefaults() {
	viper.SetDefault("store.path", "paperlib.db")

	viper.SetDefault("embedding.base_url", embedding.DefaultBaseURL)
	viper.SetDefault("embedding.model", embedding.DefaultModel)
	viper.SetDefault("embedding.timeout", 30*time.Second)
	viper.SetDefault("embedding.max_retries", 3)
	viper.SetDefault("embedding.requests_per_second", 0.0)

	viper.SetDefault("dedupe.fuzzy_threshold", 0.9)

	viper.SetDefault("search.top_k", 20)
	viper.SetDefault("search.stream_batch_size", 20)
	viper.SetDefault("search.lexicon_path", "")
	viper.SetDefault("search.activation_threshold", 0.0)

	viper.SetDefault("citations.timeout", 60*time.Second)
	viper.SetDefault("citations.sources", []string{"crossref", "openalex"})
	viper.SetDefault("citations.placeholder_confidence", 0.5)

	viper.SetDefault("reconcile.interval", 10*time.Minute)
	viper.SetDefault("reconcile.batch_limit", 100)
	viper.SetDefault("reconcile.concurrency", 4)
}

// loadConfig materializes the viper state into the typed configuration.
// Secrets files and environment variables fill in credentials the config
// file leaves empty.
func loadConfig() types.Config {
	cfg := types.Config{
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Embedding: types.EmbeddingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("embedding.timeout"),
				UserAgent: defaultUserAgent,
			},
			BaseURL:           viper.GetString("embedding.base_url"),
			APIKey:            viper.GetString("embedding.api_key"),
			Model:             viper.GetString("embedding.model"),
			MaxRetries:        viper.GetInt("embedding.max_retries"),
			RequestsPerSecond: viper.GetFloat64("embedding.requests_per_second"),
		},
		Dedupe: types.DedupeConfig{
			FuzzyThreshold: viper.GetFloat64("dedupe.fuzzy_threshold"),
		},
		Search: types.SearchConfig{
			TopK:                viper.GetInt("search.top_k"),
			StreamBatchSize:     viper.GetInt("search.stream_batch_size"),
			LexiconPath:         viper.GetString("search.lexicon_path"),
			ActivationThreshold: viper.GetFloat64("search.activation_threshold"),
		},
		Citations: types.CitationsConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("citations.timeout"),
				UserAgent: defaultUserAgent,
			},
			Sources:               viper.GetStringSlice("citations.sources"),
			PlaceholderConfidence: viper.GetFloat64("citations.placeholder_confidence"),
			OpenAlexEmail:         viper.GetString("citations.openalex_email"),
		},
		Reconcile: types.ReconcileConfig{
			Interval:    viper.GetDuration("reconcile.interval"),
			BatchLimit:  viper.GetInt("reconcile.batch_limit"),
			Concurrency: viper.GetInt("reconcile.concurrency"),
		},
	}

	cfg.Embedding.APIKey = secrets.Resolve(cfg.Embedding.APIKey, "OPENAI_API_KEY", loadedSecrets, "embedding-api-key")
	cfg.Citations.OpenAlexEmail = secrets.Resolve(cfg.Citations.OpenAlexEmail, "OPENALEX_EMAIL", loadedSecrets, "openalex-email")

	return cfg
}

// newLogger builds the service logger. Default is silent; --verbose switches
// to development output on stderr.
func newLogger() *zap.Logger {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func openStore(cfg types.Config, log *zap.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Store.Path, err)
	}
	return st, nil
}

func newProvider(cfg types.EmbeddingConfig) *embedding.Client {
	opts := []embedding.Option{
		embedding.WithBaseURL(cfg.BaseURL),
		embedding.WithAPIKey(cfg.APIKey),
		embedding.WithModel(cfg.Model),
		embedding.WithMaxRetries(cfg.MaxRetries),
		embedding.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, embedding.WithRateLimit(cfg.RequestsPerSecond))
	}
	return embedding.NewClient(opts...)
}

func newLexicon(cfg types.SearchConfig) (*lexicon.Lexicon, error) {
	lex, err := lexicon.Load(cfg.LexiconPath, cfg.ActivationThreshold)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon %s: %w", cfg.LexiconPath, err)
	}
	return lex, nil
}

func newResolver(st *store.Store, cfg types.Config, log *zap.Logger) *dedupe.Resolver {
	return dedupe.NewResolver(st, cfg.Dedupe, log)
}

func citationSources(cfg types.CitationsConfig) []citations.Source {
	client := &http.Client{Timeout: cfg.Timeout}
	return []citations.Source{
		&citations.CrossrefSource{Client: client, UserAgent: cfg.UserAgent},
		&citations.OpenAlexSource{Client: client, Email: cfg.OpenAlexEmail},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
