// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"fmt"

	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// maxLabelRunes caps node labels so graph payloads stay renderable.
const maxLabelRunes = 120

// GraphFilter narrows which edges an ego graph includes.
type GraphFilter struct {
	Sources       []string
	MinConfidence float64
}

// EgoGraph builds the one-hop neighborhood around a paper: the paper
// itself, everything it cites, and everything citing it. This is a pure
// read; the only failure mode is an unknown paper id.
func (s *Service) EgoGraph(ctx context.Context, paperID int64, f GraphFilter) (types.Graph, error) {
	center, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return types.Graph{}, err
	}

	out, in, err := s.store.EdgesForPaper(ctx, paperID, store.EdgeFilter{
		Sources:       f.Sources,
		MinConfidence: f.MinConfidence,
	})
	if err != nil {
		return types.Graph{}, fmt.Errorf("loading edges for paper %d: %w", paperID, err)
	}

	graph := types.Graph{
		CenterID: paperID,
		Nodes:    []types.GraphNode{nodeFor(center, types.RoleCentral)},
	}
	seen := map[int64]bool{paperID: true}

	addNode := func(id int64, role types.NodeRole) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		p, err := s.store.GetPaper(ctx, id)
		if err != nil {
			return fmt.Errorf("loading neighbor %d: %w", id, err)
		}
		graph.Nodes = append(graph.Nodes, nodeFor(p, role))
		return nil
	}

	for _, e := range out {
		if err := addNode(e.CitedID, types.RoleCited); err != nil {
			return types.Graph{}, err
		}
		graph.Edges = append(graph.Edges, *e)
	}
	for _, e := range in {
		if err := addNode(e.CitingID, types.RoleCiting); err != nil {
			return types.Graph{}, err
		}
		graph.Edges = append(graph.Edges, *e)
	}

	graph.Stats = types.GraphStats{
		TotalNodes: len(graph.Nodes),
		TotalEdges: len(graph.Edges),
		InDegree:   len(in),
		OutDegree:  len(out),
		BySource:   make(map[string]int),
	}
	for _, e := range graph.Edges {
		graph.Stats.BySource[e.Source]++
	}
	return graph, nil
}

func nodeFor(p *types.Paper, role types.NodeRole) types.GraphNode {
	return types.GraphNode{
		ID:     p.ID,
		Label:  truncateLabel(p.Title),
		Role:   role,
		Year:   p.Year,
		Source: p.Source,
	}
}

func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes])
}
