// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/embedding"
	"github.com/silk2onion/paperlib/internal/lexicon"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// fixedProvider returns one preset vector for every input and records the
// last embedded text.
type fixedProvider struct {
	vec      []float32
	err      error
	lastText string
}

func (f *fixedProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fixedProvider) ModelName() string { return "fixed" }

func testSearch(t *testing.T, provider embedding.Provider, cfg types.SearchConfig) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	lex := lexicon.New(map[string]types.SemanticGroup{
		"walkability": {Words: []string{"walkability", "street vitality"}, Weight: 1.2},
	}, 0)
	return New(st, provider, lex, cfg, zap.NewNop()), st
}

func addPaper(t *testing.T, st *store.Store, title string, year int, vec []float32) *types.Paper {
	t.Helper()
	p := &types.Paper{Title: title, Year: year, Embedding: vec}
	if err := st.CreatePaper(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSearchRanksByCosine(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1, 0}}
	s, st := testSearch(t, provider, types.SearchConfig{})
	ctx := context.Background()

	a := addPaper(t, st, "A", 2020, []float32{1, 0})
	b := addPaper(t, st, "B", 2020, []float32{0.9, 0.1})
	addPaper(t, st, "C", 2020, []float32{0, 1})

	resp, err := s.Search(ctx, Request{Query: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	// A aligns exactly, B nearly, C is orthogonal and scores 0 so it is
	// excluded from positive-hit ranking.
	if len(resp.Hits) != 2 {
		t.Fatalf("expected 2 positive hits, got %d", len(resp.Hits))
	}
	if resp.Hits[0].Paper.ID != a.ID || resp.Hits[1].Paper.ID != b.ID {
		t.Errorf("wrong order: %d, %d", resp.Hits[0].Paper.ID, resp.Hits[1].Paper.ID)
	}
	if resp.Hits[0].Score <= resp.Hits[1].Score {
		t.Errorf("scores not descending: %v vs %v", resp.Hits[0].Score, resp.Hits[1].Score)
	}
}

func TestSearchTieBreaks(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1, 0}}
	s, st := testSearch(t, provider, types.SearchConfig{})
	ctx := context.Background()

	older := addPaper(t, st, "Older", 2018, []float32{2, 0})
	newer := addPaper(t, st, "Newer", 2022, []float32{1, 0})

	resp, err := s.Search(ctx, Request{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	// Equal cosine scores: the newer paper ranks first.
	if resp.Hits[0].Paper.ID != newer.ID || resp.Hits[1].Paper.ID != older.ID {
		t.Errorf("tie-break by year failed: %+v", resp.Hits)
	}
}

func TestSearchFallbackWhenNothingPositive(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1, 0}}
	s, st := testSearch(t, provider, types.SearchConfig{})
	ctx := context.Background()

	addPaper(t, st, "Orthogonal", 2020, []float32{0, 1})

	resp, err := s.Search(ctx, Request{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Debug.Fallback {
		t.Error("expected fallback flag")
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("fallback must surface the whole pool, got %d hits", len(resp.Hits))
	}
}

func TestSearchEmptyPool(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1, 0}}
	s, _ := testSearch(t, provider, types.SearchConfig{})

	resp, err := s.Search(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 0 || resp.Total != 0 {
		t.Errorf("empty pool must yield empty results, got %+v", resp)
	}
}

func TestSearchExpandsQueryBeforeEmbedding(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1}}
	s, st := testSearch(t, provider, types.SearchConfig{})
	addPaper(t, st, "P", 2020, []float32{1})

	resp, err := s.Search(context.Background(), Request{Query: "walkability metrics"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Debug.Activated) != 1 {
		t.Fatalf("expected activated group, got %v", resp.Debug.Activated)
	}
	// The embedded text carries the group's extra vocabulary.
	if provider.lastText != "walkability metrics street vitality" {
		t.Errorf("embedded text = %q", provider.lastText)
	}
}

func TestSearchRespectsFilters(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1}}
	s, st := testSearch(t, provider, types.SearchConfig{})
	ctx := context.Background()

	addPaper(t, st, "In range", 2020, []float32{1})
	addPaper(t, st, "Too old", 2000, []float32{1})
	archived := addPaper(t, st, "Archived", 2020, []float32{1})
	if _, err := st.SetArchived(ctx, []int64{archived.ID}, true); err != nil {
		t.Fatal(err)
	}

	resp, err := s.Search(ctx, Request{Query: "q", YearFrom: 2010})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].Paper.Title != "In range" {
		t.Errorf("filters not applied: %+v", resp.Hits)
	}
}

func TestSearchTopK(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1}}
	s, st := testSearch(t, provider, types.SearchConfig{TopK: 2})
	for i := 0; i < 5; i++ {
		addPaper(t, st, "P", 2020, []float32{1})
	}

	resp, err := s.Search(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 2 || resp.Total != 5 {
		t.Errorf("top-k truncation wrong: %d hits, total %d", len(resp.Hits), resp.Total)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamEventOrder(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1, 0}}
	s, st := testSearch(t, provider, types.SearchConfig{StreamBatchSize: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		addPaper(t, st, "P", 2020, []float32{1, 0})
	}

	var events []Event
	for e := range s.Stream(ctx, Request{Query: "q", TopK: 5}) {
		events = append(events, e)
	}

	if len(events) != 5 {
		t.Fatalf("expected debug + 3 batches + done, got %d events", len(events))
	}
	if events[0].Type != EventDebug || events[0].Debug.PoolSize != 5 {
		t.Errorf("first event must be debug with pool size: %+v", events[0])
	}
	sizes := []int{len(events[1].Batch), len(events[2].Batch), len(events[3].Batch)}
	if sizes[0] != 2 || sizes[1] != 2 || sizes[2] != 1 {
		t.Errorf("batch sizes = %v", sizes)
	}
	last := events[len(events)-1]
	if last.Type != EventDone || last.Total != 5 {
		t.Errorf("stream must end with done total=5: %+v", last)
	}
}

func TestStreamEmptyPoolEndsWithDoneZero(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1}}
	s, _ := testSearch(t, provider, types.SearchConfig{})

	var last Event
	for e := range s.Stream(context.Background(), Request{Query: "q"}) {
		last = e
	}
	if last.Type != EventDone || last.Total != 0 {
		t.Errorf("empty pool must end with done total=0, got %+v", last)
	}
}

func TestStreamProviderFailureEmitsError(t *testing.T) {
	provider := &fixedProvider{err: embedding.ErrUnavailable}
	s, _ := testSearch(t, provider, types.SearchConfig{})

	var events []Event
	for e := range s.Stream(context.Background(), Request{Query: "q"}) {
		events = append(events, e)
	}
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected single error event, got %+v", events)
	}
	if !errors.Is(events[0].Err, embedding.ErrUnavailable) {
		t.Errorf("error event must wrap the provider failure: %v", events[0].Err)
	}
}

func TestStreamCancellationStopsEmission(t *testing.T) {
	provider := &fixedProvider{vec: []float32{1}}
	s, st := testSearch(t, provider, types.SearchConfig{StreamBatchSize: 1})
	for i := 0; i < 10; i++ {
		addPaper(t, st, "P", 2020, []float32{1})
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Stream(ctx, Request{Query: "q", TopK: 10})

	// Read two events, then walk away.
	<-ch
	<-ch
	cancel()

	// The goroutine must close the channel rather than hang.
	for range ch {
	}
}
