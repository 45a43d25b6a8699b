// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/dedupe"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// Resolver decides which canonical paper a reference points at.
type Resolver interface {
	Resolve(ctx context.Context, c types.CandidatePaper) (dedupe.Match, error)
}

// SourceReport is the per-provider portion of a sync result.
type SourceReport struct {
	Source       string `json:"source"`
	Skipped      bool   `json:"skipped,omitempty"`
	Total        int    `json:"total_references"`
	Matched      int    `json:"matched_references"`
	Edges        int    `json:"created_edges"`
	Placeholders int    `json:"created_placeholders"`
	Err          string `json:"error,omitempty"`
}

// SyncResult aggregates a citation sync across providers.
type SyncResult struct {
	PaperID        int64          `json:"paper_id"`
	Reports        []SourceReport `json:"sources"`
	Total          int            `json:"total_references"`
	Matched        int            `json:"matched_references"`
	Edges          int            `json:"created_edges"`
	Placeholders   int            `json:"created_placeholders"`
	CitationsCount int            `json:"citations_count"`
}

// Service syncs reference lists into citation edges and serves graph reads.
type Service struct {
	store    *store.Store
	resolver Resolver
	sources  []Source
	cfg      types.CitationsConfig
	log      *zap.Logger
}

func New(st *store.Store, resolver Resolver, sources []Source, cfg types.CitationsConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PlaceholderConfidence == 0 {
		cfg.PlaceholderConfidence = 0.5
	}
	return &Service{store: st, resolver: resolver, sources: sources, cfg: cfg, log: log}
}

// Sync fetches reference lists for a paper from the named providers (all
// configured ones when names is empty), resolves each reference, creates
// placeholders for unknown papers, and writes one edge per reference.
// Providers are processed independently: one failing provider degrades to a
// report entry, never fails the sync. Edges are append-only, so re-running
// a sync duplicates edges for already ingested references.
func (s *Service) Sync(ctx context.Context, paperID int64, names []string) (SyncResult, error) {
	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{PaperID: paperID}
	citedSeen := make(map[int64]bool)

	for _, src := range s.selectSources(names) {
		report := SourceReport{Source: src.Name()}
		if paper.DOI == "" {
			report.Skipped = true
			result.Reports = append(result.Reports, report)
			continue
		}

		refs, err := src.References(ctx, paper.DOI)
		if err != nil {
			report.Err = err.Error()
			result.Reports = append(result.Reports, report)
			s.log.Warn("reference fetch failed",
				zap.String("source", src.Name()),
				zap.Int64("paper_id", paperID),
				zap.Error(err))
			continue
		}
		report.Total = len(refs)

		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			citedID, confidence, created, err := s.resolveReference(ctx, src.Name(), ref)
			if err != nil {
				s.log.Warn("reference resolution failed",
					zap.String("source", src.Name()),
					zap.String("ref_title", ref.Title),
					zap.Error(err))
				continue
			}
			if citedID == 0 {
				continue
			}
			if created {
				report.Placeholders++
			} else {
				report.Matched++
			}

			edge := &types.CitationEdge{
				CitingID:   paperID,
				CitedID:    citedID,
				Source:     src.Name(),
				Confidence: confidence,
				RawRef:     ref.Unstructured,
			}
			if err := s.store.CreateEdge(ctx, edge); err != nil {
				s.log.Warn("edge write failed", zap.Error(err))
				continue
			}
			report.Edges++
			citedSeen[citedID] = true
		}
		result.Reports = append(result.Reports, report)
	}

	for _, r := range result.Reports {
		result.Total += r.Total
		result.Matched += r.Matched
		result.Edges += r.Edges
		result.Placeholders += r.Placeholders
	}

	for citedID := range citedSeen {
		if _, err := s.store.RefreshCitationsCount(ctx, citedID); err != nil {
			s.log.Warn("citation count refresh failed",
				zap.Int64("paper_id", citedID),
				zap.Error(err))
		}
	}
	count, err := s.store.RefreshCitationsCount(ctx, paperID)
	if err != nil {
		return result, fmt.Errorf("refreshing citation count: %w", err)
	}
	result.CitationsCount = count

	s.log.Info("citation sync done",
		zap.Int64("paper_id", paperID),
		zap.Int("total", result.Total),
		zap.Int("matched", result.Matched),
		zap.Int("edges", result.Edges),
		zap.Int("placeholders", result.Placeholders))
	return result, nil
}

// resolveReference maps a raw reference to a canonical paper id, creating a
// placeholder when nothing matches. The returned confidence follows the
// resolution kind: 1.0 for identifiers, the similarity score for fuzzy
// matches, the configured constant for fresh placeholders.
func (s *Service) resolveReference(ctx context.Context, source string, ref RawReference) (int64, float64, bool, error) {
	if ref.DOI == "" && ref.Title == "" {
		return 0, 0, false, nil
	}

	var authors []string
	if ref.Author != "" {
		authors = []string{ref.Author}
	}
	match, err := s.resolver.Resolve(ctx, types.CandidatePaper{
		Title:    ref.Title,
		Authors:  authors,
		Year:     ref.Year,
		DOI:      ref.DOI,
		Source:   source,
		SourceID: ref.SourceID,
	})
	if err != nil {
		return 0, 0, false, err
	}

	switch match.Kind {
	case dedupe.MatchDOI, dedupe.MatchSourceID:
		return match.Paper.ID, 1.0, false, nil
	case dedupe.MatchFuzzy:
		return match.Paper.ID, match.Similarity, false, nil
	}

	// Placeholders are created without an embedding attempt; the
	// reconciliation sweep or a later promotion fills it in.
	// The author rides along so a later sync can weak-match the
	// placeholder instead of minting another one.
	placeholder := &types.Paper{
		Kind:      types.KindPlaceholder,
		Title:     ref.Title,
		Authors:   authors,
		Year:      ref.Year,
		DOI:       ref.DOI,
		Source:    source,
		NormTitle: dedupe.NormalizeTitle(ref.Title),
	}
	if err := s.store.CreatePaper(ctx, placeholder); err != nil {
		return 0, 0, false, err
	}
	if ref.SourceID != "" {
		if err := s.store.AddProvenance(ctx, placeholder.ID, source, ref.SourceID); err != nil {
			return 0, 0, false, err
		}
	}
	return placeholder.ID, s.cfg.PlaceholderConfidence, true, nil
}

func (s *Service) selectSources(names []string) []Source {
	if len(names) == 0 {
		return s.sources
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []Source
	for _, src := range s.sources {
		if wanted[src.Name()] {
			out = append(out, src)
		}
	}
	return out
}
