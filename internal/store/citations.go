// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/silk2onion/paperlib/pkg/types"
)

// CreateEdge appends a directed citation edge. Edges are append-only and
// never collapsed: the same pair reported by two sources, or by two syncs,
// yields two rows.
func (s *Store) CreateEdge(ctx context.Context, e *types.CitationEdge) error {
	ts := now()
	e.CreatedAt = ts
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO citations (citing_paper_id, cited_paper_id, source, confidence, raw_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.CitingID, e.CitedID, nullIfEmpty(e.Source), e.Confidence,
		nullIfEmpty(e.RawRef), formatTime(ts))
	if err != nil {
		return fmt.Errorf("inserting citation edge %d->%d: %w", e.CitingID, e.CitedID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading citation edge id: %w", err)
	}
	e.ID = id
	return nil
}

// EdgeFilter restricts which edges an ego-graph query sees.
type EdgeFilter struct {
	Sources       []string
	MinConfidence float64
}

// EdgesForPaper returns the outgoing (paper cites X) and incoming (X cites
// paper) edges touching one paper, oldest first within each direction.
func (s *Store) EdgesForPaper(ctx context.Context, paperID int64, f EdgeFilter) (out, in []*types.CitationEdge, err error) {
	out, err = s.queryEdges(ctx, `citing_paper_id = ?`, paperID, f)
	if err != nil {
		return nil, nil, err
	}
	in, err = s.queryEdges(ctx, `cited_paper_id = ?`, paperID, f)
	if err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

func (s *Store) queryEdges(ctx context.Context, where string, paperID int64, f EdgeFilter) ([]*types.CitationEdge, error) {
	query := `SELECT id, citing_paper_id, cited_paper_id, source, confidence, raw_ref, created_at
		 FROM citations WHERE ` + where
	args := []any{paperID}
	if len(f.Sources) > 0 {
		query += ` AND source IN (?` + strings.Repeat(",?", len(f.Sources)-1) + `)`
		for _, src := range f.Sources {
			args = append(args, src)
		}
	}
	if f.MinConfidence > 0 {
		query += ` AND confidence >= ?`
		args = append(args, f.MinConfidence)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading citation edges: %w", err)
	}
	defer rows.Close()

	var edges []*types.CitationEdge
	for rows.Next() {
		var (
			e       types.CitationEdge
			source  sql.NullString
			rawRef  sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &e.CitingID, &e.CitedID, &source, &e.Confidence, &rawRef, &created); err != nil {
			return nil, fmt.Errorf("scanning citation edge: %w", err)
		}
		e.Source = source.String
		e.RawRef = rawRef.String
		e.CreatedAt = parseTime(created)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// RefreshCitationsCount recomputes the incoming-edge count stored on a
// paper after a citation sync.
func (s *Store) RefreshCitationsCount(ctx context.Context, paperID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM citations WHERE cited_paper_id = ?`, paperID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting citations of paper %d: %w", paperID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE papers SET citations_count = ?, updated_at = ? WHERE id = ?`,
		n, formatTime(now()), paperID)
	if err != nil {
		return 0, fmt.Errorf("storing citation count for paper %d: %w", paperID, err)
	}
	return n, nil
}
