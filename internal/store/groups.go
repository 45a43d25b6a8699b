// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/silk2onion/paperlib/pkg/types"
)

// CreateGroup inserts a named collection of papers. Names are unique;
// re-creating an existing name returns the existing group.
func (s *Store) CreateGroup(ctx context.Context, g *types.Group) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (name, description, created_at) VALUES (?, ?, ?)`,
		g.Name, nullIfEmpty(g.Description), formatTime(ts))
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.GetGroupByName(ctx, g.Name)
			if lookupErr != nil {
				return lookupErr
			}
			*g = *existing
			return nil
		}
		return fmt.Errorf("inserting group %q: %w", g.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading group id: %w", err)
	}
	g.ID = id
	g.CreatedAt = ts
	return nil
}

// GetGroupByName returns the group with the given name, or ErrNotFound.
func (s *Store) GetGroupByName(ctx context.Context, name string) (*types.Group, error) {
	var (
		g       types.Group
		desc    sql.NullString
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM groups WHERE name = ?`, name).
		Scan(&g.ID, &g.Name, &desc, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading group %q: %w", name, err)
	}
	g.Description = desc.String
	g.CreatedAt = parseTime(created)
	return &g, nil
}

// ListGroups returns every group, oldest first.
func (s *Store) ListGroups(ctx context.Context) ([]*types.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var out []*types.Group
	for rows.Next() {
		var (
			g       types.Group
			desc    sql.NullString
			created string
		)
		if err := rows.Scan(&g.ID, &g.Name, &desc, &created); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		g.Description = desc.String
		g.CreatedAt = parseTime(created)
		out = append(out, &g)
	}
	return out, rows.Err()
}

// AddPaperToGroup attaches a paper to a group. Already-attached pairs are
// no-ops.
func (s *Store) AddPaperToGroup(ctx context.Context, paperID, groupID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO paper_groups (paper_id, group_id) VALUES (?, ?)`,
		paperID, groupID)
	if err != nil {
		return fmt.Errorf("adding paper %d to group %d: %w", paperID, groupID, err)
	}
	return nil
}
