// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

func addEdge(t *testing.T, st *store.Store, citing, cited int64, source string, confidence float64) {
	t.Helper()
	e := &types.CitationEdge{CitingID: citing, CitedID: cited, Source: source, Confidence: confidence}
	if err := st.CreateEdge(context.Background(), e); err != nil {
		t.Fatal(err)
	}
}

func TestEgoGraph(t *testing.T) {
	s, st := testSync(t)
	ctx := context.Background()

	center := addPaper(t, st, &types.Paper{Title: "Center", Year: 2020, Source: "arxiv"})
	cited := addPaper(t, st, &types.Paper{Title: "Cited", Year: 2018})
	citing := addPaper(t, st, &types.Paper{Title: "Citing", Year: 2022})

	addEdge(t, st, center.ID, cited.ID, "crossref", 1.0)
	addEdge(t, st, citing.ID, center.ID, "openalex", 0.5)

	g, err := s.EgoGraph(ctx, center.ID, GraphFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if g.CenterID != center.ID {
		t.Errorf("center id = %d", g.CenterID)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	roles := map[int64]types.NodeRole{}
	for _, n := range g.Nodes {
		roles[n.ID] = n.Role
	}
	if roles[center.ID] != types.RoleCentral || roles[cited.ID] != types.RoleCited || roles[citing.ID] != types.RoleCiting {
		t.Errorf("roles wrong: %v", roles)
	}

	if g.Stats.TotalNodes != 3 || g.Stats.TotalEdges != 2 {
		t.Errorf("stats wrong: %+v", g.Stats)
	}
	if g.Stats.OutDegree != 1 || g.Stats.InDegree != 1 {
		t.Errorf("degrees wrong: %+v", g.Stats)
	}
	if g.Stats.BySource["crossref"] != 1 || g.Stats.BySource["openalex"] != 1 {
		t.Errorf("per-source breakdown wrong: %v", g.Stats.BySource)
	}
}

func TestEgoGraphDuplicateEdgesShareOneNode(t *testing.T) {
	s, st := testSync(t)
	ctx := context.Background()

	center := addPaper(t, st, &types.Paper{Title: "Center"})
	cited := addPaper(t, st, &types.Paper{Title: "Cited"})

	// Two sources claim the same (from, to) pair.
	addEdge(t, st, center.ID, cited.ID, "crossref", 1.0)
	addEdge(t, st, center.ID, cited.ID, "openalex", 1.0)

	g, err := s.EgoGraph(ctx, center.ID, GraphFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 2 {
		t.Errorf("both source claims must survive, got %d edges", len(g.Edges))
	}
	if len(g.Nodes) != 2 {
		t.Errorf("the cited paper must appear once, got %d nodes", len(g.Nodes))
	}
}

func TestEgoGraphFilters(t *testing.T) {
	s, st := testSync(t)
	ctx := context.Background()

	center := addPaper(t, st, &types.Paper{Title: "Center"})
	a := addPaper(t, st, &types.Paper{Title: "A"})
	b := addPaper(t, st, &types.Paper{Title: "B"})

	addEdge(t, st, center.ID, a.ID, "crossref", 1.0)
	addEdge(t, st, center.ID, b.ID, "openalex", 0.5)

	bySource, err := s.EgoGraph(ctx, center.ID, GraphFilter{Sources: []string{"crossref"}})
	if err != nil {
		t.Fatal(err)
	}
	if bySource.Stats.TotalEdges != 1 || bySource.Stats.TotalNodes != 2 {
		t.Errorf("source filter wrong: %+v", bySource.Stats)
	}

	byConfidence, err := s.EgoGraph(ctx, center.ID, GraphFilter{MinConfidence: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if byConfidence.Stats.TotalEdges != 1 {
		t.Errorf("confidence filter wrong: %+v", byConfidence.Stats)
	}
}

func TestEgoGraphTruncatesLabels(t *testing.T) {
	s, st := testSync(t)

	long := strings.Repeat("x", 300)
	center := addPaper(t, st, &types.Paper{Title: long})

	g, err := s.EgoGraph(context.Background(), center.ID, GraphFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(g.Nodes[0].Label)) != maxLabelRunes {
		t.Errorf("label length = %d, want %d", len([]rune(g.Nodes[0].Label)), maxLabelRunes)
	}
}

func TestEgoGraphUnknownPaper(t *testing.T) {
	s, _ := testSync(t)
	_, err := s.EgoGraph(context.Background(), 12345, GraphFilter{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEgoGraphIsolatedPaper(t *testing.T) {
	s, st := testSync(t)
	center := addPaper(t, st, &types.Paper{Title: "Lonely"})

	g, err := s.EgoGraph(context.Background(), center.ID, GraphFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.TotalNodes != 1 || g.Stats.TotalEdges != 0 {
		t.Errorf("isolated paper stats wrong: %+v", g.Stats)
	}
}
