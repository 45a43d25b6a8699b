// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding provides vector generation for paper text.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the provider could not produce a vector after
// retries. Callers commit metadata without a vector and rely on the
// reconciliation sweep to heal it later.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
