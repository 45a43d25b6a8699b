// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CitationEdge is a directed claim that one paper cites another, as reported
// by a single bibliographic source. Multiple sources may each contribute an
// edge for the same (citing, cited) pair; the claims are kept separate for
// provenance and later weighting.
type CitationEdge struct {
	ID int64 `json:"id"`

	// CitingID and CitedID are canonical paper ids.
	CitingID int64 `json:"from"`
	CitedID  int64 `json:"to"`

	// Source names the bibliographic provider that supplied the edge
	// (e.g. "crossref", "openalex").
	Source string `json:"source"`

	// Confidence is in [0,1]: 1.0 for identifier-based resolution, a
	// similarity-derived value for fuzzy resolution, and a fixed lower
	// constant for edges pointing at freshly created placeholders.
	Confidence float64 `json:"confidence"`

	// RawRef preserves the unstructured reference string when the source
	// provided one.
	RawRef string `json:"raw_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NodeRole tags a node's relationship to the center of an ego graph.
type NodeRole string

const (
	RoleCentral NodeRole = "central"
	RoleCited   NodeRole = "cited"
	RoleCiting  NodeRole = "citing"
)

// GraphNode is a paper in an ego graph, with a display label truncated for
// presentation.
type GraphNode struct {
	ID     int64    `json:"id"`
	Label  string   `json:"label"`
	Role   NodeRole `json:"role"`
	Year   int      `json:"year,omitempty"`
	Source string   `json:"source,omitempty"`
}

// GraphStats summarizes an ego graph.
type GraphStats struct {
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	InDegree   int            `json:"in_degree"`
	OutDegree  int            `json:"out_degree"`
	BySource   map[string]int `json:"by_source"`
}

// Graph is the one-hop citation neighborhood around a paper.
type Graph struct {
	CenterID int64          `json:"center_paper_id"`
	Nodes    []GraphNode    `json:"nodes"`
	Edges    []CitationEdge `json:"edges"`
	Stats    GraphStats     `json:"stats"`
}
