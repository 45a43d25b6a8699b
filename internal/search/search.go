// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search ranks canonical papers against a free-text query. The
// query is expanded through the semantic-group lexicon, embedded, and
// scored by cosine similarity against every stored vector that passes the
// filters.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/embedding"
	"github.com/silk2onion/paperlib/internal/lexicon"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// Request is one search invocation.
type Request struct {
	Query           string `json:"query"`
	YearFrom        int    `json:"year_from,omitempty"`
	YearTo          int    `json:"year_to,omitempty"`
	GroupID         int64  `json:"group_id,omitempty"`
	IncludeArchived bool   `json:"include_archived,omitempty"`
	TopK            int    `json:"top_k,omitempty"`
}

// Hit is one ranked result.
type Hit struct {
	Paper *types.Paper `json:"paper"`
	Score float64      `json:"score"`
}

// Debug describes how the query was expanded and how large the candidate
// pool was. Emitted once per search.
type Debug struct {
	Keywords  []string                      `json:"keywords"`
	Activated map[string]lexicon.Activation `json:"activated_groups"`
	PoolSize  int                           `json:"pool_size"`
	Fallback  bool                          `json:"fallback,omitempty"`
}

// Response is the non-streaming result.
type Response struct {
	Hits  []Hit `json:"hits"`
	Debug Debug `json:"debug"`
	Total int   `json:"total"`
}

// Service executes semantic searches.
type Service struct {
	store    *store.Store
	provider embedding.Provider
	lex      *lexicon.Lexicon
	cfg      types.SearchConfig
	log      *zap.Logger
}

func New(st *store.Store, provider embedding.Provider, lex *lexicon.Lexicon, cfg types.SearchConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TopK == 0 {
		cfg.TopK = 20
	}
	if cfg.StreamBatchSize == 0 {
		cfg.StreamBatchSize = 20
	}
	return &Service{store: st, provider: provider, lex: lex, cfg: cfg, log: log}
}

// Search runs the full pipeline and returns the ranked top results.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	hits, debug, err := s.rank(ctx, req)
	if err != nil {
		return Response{}, err
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	total := len(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return Response{Hits: hits, Debug: debug, Total: total}, nil
}

func (s *Service) rank(ctx context.Context, req Request) ([]Hit, Debug, error) {
	exp := s.lex.Expand(strings.Fields(req.Query))
	debug := Debug{Keywords: exp.Keywords, Activated: exp.Activated}

	queryText := req.Query
	if len(exp.Keywords) > 0 {
		queryText = strings.Join(exp.Keywords, " ")
	}
	queryVec, err := s.provider.Embed(ctx, queryText)
	if err != nil {
		return nil, debug, fmt.Errorf("embedding query: %w", err)
	}

	pool, err := s.store.EmbeddedPapers(ctx, store.SearchFilter{
		YearFrom:        req.YearFrom,
		YearTo:          req.YearTo,
		IncludeArchived: req.IncludeArchived,
		GroupID:         req.GroupID,
	})
	if err != nil {
		return nil, debug, fmt.Errorf("loading candidate pool: %w", err)
	}
	debug.PoolSize = len(pool)

	scored := make([]Hit, 0, len(pool))
	for _, p := range pool {
		scored = append(scored, Hit{Paper: p, Score: CosineSimilarity(queryVec, p.Embedding)})
	}

	hits := scored[:0:0]
	for _, h := range scored {
		if h.Score > 0 {
			hits = append(hits, h)
		}
	}
	// A query orthogonal to the whole library still returns something to
	// look at instead of an empty page.
	if len(hits) == 0 && len(scored) > 0 {
		hits = scored
		debug.Fallback = true
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Paper.Year != hits[j].Paper.Year {
			return hits[i].Paper.Year > hits[j].Paper.Year
		}
		return hits[i].Paper.ID < hits[j].Paper.ID
	})
	return hits, debug, nil
}

// CosineSimilarity computes dot(a,b)/(‖a‖·‖b‖). Mismatched lengths and
// zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
