// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package promote moves reviewed staging records into the canonical
// library. It owns the embedding-consistency rule: a stored vector always
// corresponds to the title and abstract that were current when the record
// was committed, and records committed without a vector are healed by the
// background reconciler.
package promote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/dedupe"
	"github.com/silk2onion/paperlib/internal/embedding"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// Outcome is the per-record result of a promotion batch.
type Outcome struct {
	StagingID   int64  `json:"staging_id"`
	PaperID     int64  `json:"paper_id,omitempty"`
	Created     bool   `json:"created,omitempty"`
	Merged      bool   `json:"merged,omitempty"`
	Upgraded    bool   `json:"upgraded,omitempty"`
	EmbeddingOK bool   `json:"embedding_ok"`
	Err         string `json:"error,omitempty"`
}

// Resolver decides which canonical paper, if any, a candidate refers to.
type Resolver interface {
	Resolve(ctx context.Context, c types.CandidatePaper) (dedupe.Match, error)
}

// Service promotes staging records into canonical papers.
type Service struct {
	store    *store.Store
	resolver Resolver
	provider embedding.Provider
	log      *zap.Logger
}

func New(st *store.Store, resolver Resolver, provider embedding.Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, resolver: resolver, provider: provider, log: log}
}

// Promote processes each staging id independently and returns a per-record
// outcome list. A failure on one record never aborts the rest; the returned
// error is reserved for context cancellation.
func (s *Service) Promote(ctx context.Context, stagingIDs []int64) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(stagingIDs))
	for _, id := range stagingIDs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, s.promoteOne(ctx, id))
	}
	return outcomes, nil
}

func (s *Service) promoteOne(ctx context.Context, stagingID int64) Outcome {
	out := Outcome{StagingID: stagingID}

	rec, err := s.store.GetStaging(ctx, stagingID)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	if rec.Status == types.StatusRejected {
		out.Err = "staging record is rejected"
		return out
	}
	// Promoting twice is a no-op: the record already points at its paper.
	if rec.Status == types.StatusAccepted && rec.PaperID != 0 {
		out.PaperID = rec.PaperID
		if p, err := s.store.GetPaper(ctx, rec.PaperID); err == nil {
			out.EmbeddingOK = len(p.Embedding) > 0
		}
		return out
	}

	match, err := s.resolver.Resolve(ctx, rec.CandidatePaper)
	if err != nil {
		out.Err = err.Error()
		return out
	}

	var p *types.Paper
	switch match.Kind {
	case dedupe.NoMatch:
		p = paperFromCandidate(rec.CandidatePaper)
		out.Created = true
		s.tryEmbed(ctx, p)
	default:
		p = match.Paper
		changed := mergeCandidate(p, rec.CandidatePaper)
		out.Merged = true
		if p.IsPlaceholder() {
			// Upgrade keeps the id so existing citation edges stay valid.
			p.Kind = types.KindFull
			out.Upgraded = true
		}
		if changed {
			p.Embedding = nil
			s.tryEmbed(ctx, p)
		} else if len(p.Embedding) == 0 {
			s.tryEmbed(ctx, p)
		}
	}

	if err := s.store.CommitPromotion(ctx, p, rec.Source, rec.SourceID, rec.ID); err != nil {
		if errors.Is(err, store.ErrDOIConflict) {
			out.Err = fmt.Sprintf("doi %s already belongs to another paper", rec.DOI)
		} else {
			out.Err = err.Error()
		}
		out.Created, out.Merged, out.Upgraded = false, false, false
		return out
	}
	out.PaperID = p.ID
	out.EmbeddingOK = len(p.Embedding) > 0
	return out
}

// tryEmbed computes and attaches a vector; failure is logged and the paper
// is committed without one.
func (s *Service) tryEmbed(ctx context.Context, p *types.Paper) {
	vec, err := s.provider.Embed(ctx, p.EmbeddingText())
	if err != nil {
		s.log.Warn("embedding failed, committing without vector",
			zap.String("title", p.Title),
			zap.Error(err))
		p.Embedding = nil
		return
	}
	p.Embedding = vec
}

func paperFromCandidate(c types.CandidatePaper) *types.Paper {
	return &types.Paper{
		Kind:      types.KindFull,
		Title:     c.Title,
		Authors:   c.Authors,
		Abstract:  c.Abstract,
		Year:      c.Year,
		Venue:     c.Venue,
		Keywords:  c.Keywords,
		URL:       c.URL,
		DOI:       c.DOI,
		ArxivID:   c.ArxivID,
		Source:    c.Source,
		NormTitle: dedupe.NormalizeTitle(c.Title),
	}
}

// mergeCandidate fills empty fields of the canonical paper from the
// candidate and unions authors and keywords. It reports whether the title
// or abstract changed, which invalidates the stored embedding.
func mergeCandidate(p *types.Paper, c types.CandidatePaper) bool {
	changed := false
	if p.Title == "" && c.Title != "" {
		p.Title = c.Title
		p.NormTitle = dedupe.NormalizeTitle(c.Title)
		changed = true
	}
	if p.Abstract == "" && c.Abstract != "" {
		p.Abstract = c.Abstract
		changed = true
	}
	if p.Year == 0 {
		p.Year = c.Year
	}
	if p.Venue == "" {
		p.Venue = c.Venue
	}
	if p.URL == "" {
		p.URL = c.URL
	}
	if p.DOI == "" {
		p.DOI = c.DOI
	}
	if p.ArxivID == "" {
		p.ArxivID = c.ArxivID
	}
	if p.Source == "" {
		p.Source = c.Source
	}
	p.Authors = unionStrings(p.Authors, c.Authors)
	p.Keywords = unionStrings(p.Keywords, c.Keywords)
	return changed
}

// unionStrings appends unseen items, comparing case-insensitively and
// keeping the existing order first.
func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[strings.ToLower(s)] = true
	}
	out := existing
	for _, s := range incoming {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
