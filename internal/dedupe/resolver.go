// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// MatchKind says which rule of the resolution cascade fired.
type MatchKind string

const (
	MatchDOI      MatchKind = "doi"
	MatchSourceID MatchKind = "source_id"
	MatchFuzzy    MatchKind = "fuzzy"
	NoMatch       MatchKind = "none"
)

// Match is the outcome of resolving one candidate. Similarity is 1.0 for
// identifier matches and the title-similarity score for fuzzy matches.
type Match struct {
	Kind       MatchKind
	Paper      *types.Paper
	Similarity float64
}

// Resolver runs the resolution cascade against the canonical store.
type Resolver struct {
	store     *store.Store
	sim       Similarity
	threshold float64
	log       *zap.Logger
}

func NewResolver(st *store.Store, cfg types.DedupeConfig, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	threshold := cfg.FuzzyThreshold
	if threshold == 0 {
		threshold = 0.9
	}
	return &Resolver{
		store:     st,
		sim:       LevenshteinRatio{},
		threshold: threshold,
		log:       log,
	}
}

// Resolve finds the canonical paper a candidate refers to, or reports
// NoMatch. Rules fire in order: DOI, source-native id, then fuzzy title
// within the first-author/year block.
func (r *Resolver) Resolve(ctx context.Context, c types.CandidatePaper) (Match, error) {
	if c.DOI != "" {
		p, err := r.store.GetPaperByDOI(ctx, c.DOI)
		if err == nil {
			return Match{Kind: MatchDOI, Paper: p, Similarity: 1.0}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return Match{Kind: NoMatch}, fmt.Errorf("resolving by doi: %w", err)
		}
	}

	if c.Source != "" && c.SourceID != "" {
		p, err := r.store.GetPaperBySourceID(ctx, c.Source, c.SourceID)
		if err == nil {
			return Match{Kind: MatchSourceID, Paper: p, Similarity: 1.0}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return Match{Kind: NoMatch}, fmt.Errorf("resolving by source id: %w", err)
		}
	}

	return r.resolveFuzzy(ctx, c)
}

func (r *Resolver) resolveFuzzy(ctx context.Context, c types.CandidatePaper) (Match, error) {
	surname := FirstAuthorSurname(c.Authors)
	if surname == "" || c.Title == "" {
		return Match{Kind: NoMatch}, nil
	}

	// A zero year on the candidate disables the year filter; candidates
	// whose stored year is also unknown are still comparable.
	pool, err := r.store.WeakMatchCandidates(ctx, surname, c.Year)
	if err != nil {
		return Match{Kind: NoMatch}, fmt.Errorf("loading fuzzy candidates: %w", err)
	}

	key := NormalizeTitle(c.Title)
	var (
		best      *types.Paper
		bestScore float64
		bestRank  int
	)
	for _, p := range pool {
		theirs := p.NormTitle
		if theirs == "" {
			theirs = NormalizeTitle(p.Title)
		}
		score := r.sim.Score(key, theirs)
		if score < r.threshold {
			continue
		}
		rank := completeness(p)
		// Pool is ordered by id, so strict comparisons keep the lowest id
		// among equally scored, equally complete papers.
		if best == nil || score > bestScore || (score == bestScore && rank > bestRank) {
			best, bestScore, bestRank = p, score, rank
		}
	}
	if best == nil {
		return Match{Kind: NoMatch}, nil
	}
	r.log.Debug("fuzzy match",
		zap.String("title", c.Title),
		zap.Int64("paper_id", best.ID),
		zap.Float64("score", bestScore))
	return Match{Kind: MatchFuzzy, Paper: best, Similarity: bestScore}, nil
}

// completeness counts populated metadata fields, the first fuzzy tie-break.
func completeness(p *types.Paper) int {
	n := 0
	if p.Title != "" {
		n++
	}
	if len(p.Authors) > 0 {
		n++
	}
	if p.Abstract != "" {
		n++
	}
	if p.Year != 0 {
		n++
	}
	if p.Venue != "" {
		n++
	}
	if len(p.Keywords) > 0 {
		n++
	}
	if p.URL != "" {
		n++
	}
	if p.DOI != "" {
		n++
	}
	if p.ArxivID != "" {
		n++
	}
	if len(p.Embedding) > 0 {
		n++
	}
	return n
}
