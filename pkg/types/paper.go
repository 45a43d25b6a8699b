// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperlib core:
// candidate and staging records, canonical papers, citation edges, and
// per-stage configuration.
package types

import "time"

// PaperKind distinguishes full canonical records from placeholders that were
// created only as the target of a citation edge.
type PaperKind string

const (
	// KindFull is a paper promoted through the staging workflow.
	KindFull PaperKind = "full"

	// KindPlaceholder is a minimal record (title and year only) created by
	// citation ingestion when a reference could not be resolved. It is
	// upgraded in place, keeping its id, when a real ingestion enriches it.
	KindPlaceholder PaperKind = "placeholder"
)

// CandidatePaper is the uniform record a crawl adapter produces. It carries
// no identity beyond its provenance; identity is assigned on promotion.
type CandidatePaper struct {
	// Title is the paper title as reported by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Abstract is the paper abstract, possibly empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the Digital Object Identifier, empty when unknown.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the arXiv identifier (e.g. "2301.07041"), empty when unknown.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Source names the crawl adapter that produced this record
	// (e.g. "crossref", "scopus", "arxiv").
	Source string `json:"source" yaml:"source"`

	// SourceID is the source-native identifier (e.g. a Scopus EID).
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Venue is the raw journal or conference string.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Keywords lists source-supplied keywords.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// URL is the landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// HasIdentity reports whether the candidate carries at least one usable
// identity signal: a DOI or a (source, source id) pair.
func (c CandidatePaper) HasIdentity() bool {
	return c.DOI != "" || (c.Source != "" && c.SourceID != "")
}

// Paper is the unit of identity in the canonical library. At most one Paper
// exists per DOI; the numeric id is stable for the record's lifetime.
type Paper struct {
	ID   int64     `json:"id"`
	Kind PaperKind `json:"kind"`

	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Year     int      `json:"year,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	URL      string   `json:"url,omitempty"`

	// DOI is stored lowercased. A unique index enforces at most one canonical
	// record per DOI.
	DOI     string `json:"doi,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty"`

	// Source is the adapter that contributed the record originally;
	// additional (source, source id) pairs live in the provenance table.
	Source string `json:"source,omitempty"`

	// NormTitle is the normalized-title key used for fuzzy matching only.
	// It is never shown to users.
	NormTitle string `json:"-"`

	// Embedding is the dense vector computed from the current title and
	// abstract, or nil when no successful embedding attempt has been made.
	Embedding []float32 `json:"embedding,omitempty"`

	// CitationsCount is the number of stored edges pointing at this paper.
	CitationsCount int `json:"citations_count"`

	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPlaceholder reports whether the record is a citation placeholder.
func (p *Paper) IsPlaceholder() bool { return p.Kind == KindPlaceholder }

// EmbeddingText returns the text the paper's embedding is computed from:
// the title and abstract joined with a blank line.
func (p *Paper) EmbeddingText() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + "\n\n" + p.Abstract
}

// Provenance records that a source contributed a paper, keyed by the
// source-native identifier.
type Provenance struct {
	PaperID  int64  `json:"paper_id"`
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
}
