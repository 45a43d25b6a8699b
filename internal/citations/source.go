// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations builds the citation graph: it pulls reference lists
// from bibliographic providers, resolves each reference against the
// canonical library, and writes confidence-weighted edges.
package citations

import "context"

// RawReference is a structured reference extracted from one provider's
// reference list. Fields may be empty; a reference with neither DOI nor
// title is unusable.
type RawReference struct {
	DOI          string
	Title        string
	Author       string
	Year         int
	SourceID     string
	Unstructured string
}

// Source fetches the reference list of a paper from one bibliographic
// provider, keyed by the paper's DOI.
type Source interface {
	Name() string
	References(ctx context.Context, doi string) ([]RawReference, error)
}
