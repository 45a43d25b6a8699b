// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/silk2onion/paperlib/pkg/types"
)

const stagingColumns = `id, title, authors, abstract, year, venue, keywords, url,
	doi, arxiv_id, source, source_id, status, batch_id, paper_id, created_at, updated_at`

func scanStaging(row interface{ Scan(...any) error }) (*types.StagingRecord, error) {
	var (
		r        types.StagingRecord
		authors  sql.NullString
		abstract sql.NullString
		year     sql.NullInt64
		venue    sql.NullString
		keywords sql.NullString
		url      sql.NullString
		doi      string
		arxivID  sql.NullString
		source   sql.NullString
		sourceID sql.NullString
		status   string
		batchID  sql.NullString
		paperID  sql.NullInt64
		created  string
		updated  string
	)
	err := row.Scan(&r.ID, &r.Title, &authors, &abstract, &year, &venue, &keywords,
		&url, &doi, &arxivID, &source, &sourceID, &status, &batchID, &paperID,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	r.Authors = unmarshalStrings(authors)
	r.Abstract = abstract.String
	r.Year = int(year.Int64)
	r.Venue = venue.String
	r.Keywords = unmarshalStrings(keywords)
	r.URL = url.String
	r.DOI = doi
	r.ArxivID = arxivID.String
	r.Source = source.String
	r.SourceID = sourceID.String
	r.Status = types.ReviewStatus(status)
	r.BatchID = batchID.String
	r.PaperID = paperID.Int64
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return &r, nil
}

// CreateStaging inserts a candidate into the staging area as pending and
// assigns its id.
func (s *Store) CreateStaging(ctx context.Context, r *types.StagingRecord) error {
	if r.Status == "" {
		r.Status = types.StatusPending
	}
	r.DOI = strings.ToLower(strings.TrimSpace(r.DOI))
	ts := now()
	r.CreatedAt, r.UpdatedAt = ts, ts

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO staging_papers (title, authors, abstract, year, venue, keywords,
			url, doi, arxiv_id, source, source_id, status, batch_id, paper_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, marshalJSON(r.Authors), nullIfEmpty(r.Abstract), yearValue(r.Year),
		nullIfEmpty(r.Venue), marshalJSON(r.Keywords), nullIfEmpty(r.URL), r.DOI,
		nullIfEmpty(r.ArxivID), nullIfEmpty(r.Source), nullIfEmpty(r.SourceID),
		string(r.Status), nullIfEmpty(r.BatchID), nullIfZero(r.PaperID),
		formatTime(ts), formatTime(ts),
	)
	if err != nil {
		return fmt.Errorf("inserting staging record %q: %w", r.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading staging id: %w", err)
	}
	r.ID = id
	return nil
}

// GetStaging returns the staging record with the given id, or ErrNotFound.
func (s *Store) GetStaging(ctx context.Context, id int64) (*types.StagingRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stagingColumns+` FROM staging_papers WHERE id = ?`, id)
	r, err := scanStaging(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staging record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading staging record %d: %w", id, err)
	}
	return r, nil
}

// FindStagingByIdentity returns the first staging record matching the
// candidate's strong identity: its DOI if set, otherwise its
// (source, source id) pair. Returns ErrNotFound when nothing matches.
func (s *Store) FindStagingByIdentity(ctx context.Context, c types.CandidatePaper) (*types.StagingRecord, error) {
	doi := strings.ToLower(strings.TrimSpace(c.DOI))
	if doi != "" {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+stagingColumns+` FROM staging_papers WHERE doi = ? ORDER BY id LIMIT 1`, doi)
		r, err := scanStaging(row)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading staging record by doi: %w", err)
		}
	}
	if c.Source != "" && c.SourceID != "" {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+stagingColumns+` FROM staging_papers
			 WHERE source = ? AND source_id = ? ORDER BY id LIMIT 1`, c.Source, c.SourceID)
		r, err := scanStaging(row)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading staging record by source id: %w", err)
		}
	}
	return nil, ErrNotFound
}

// ListStaging returns staging records filtered by status (empty means all)
// and batch id (empty means all), newest first.
func (s *Store) ListStaging(ctx context.Context, status types.ReviewStatus, batchID string) ([]*types.StagingRecord, error) {
	query := `SELECT ` + stagingColumns + ` FROM staging_papers WHERE 1=1`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	if batchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, batchID)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing staging records: %w", err)
	}
	defer rows.Close()

	var out []*types.StagingRecord
	for rows.Next() {
		r, err := scanStaging(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning staging row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetStagingStatus updates the review status of a staging record and, for
// accepted records, stamps the canonical paper it resolved to.
func (s *Store) SetStagingStatus(ctx context.Context, id int64, status types.ReviewStatus, paperID int64) error {
	return s.setStagingStatus(ctx, s.db, id, status, paperID)
}

func (s *Store) setStagingStatus(ctx context.Context, db execer, id int64, status types.ReviewStatus, paperID int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE staging_papers SET status = ?, paper_id = ?, updated_at = ? WHERE id = ?`,
		string(status), nullIfZero(paperID), formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("updating staging record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating staging record %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("staging record %d: %w", id, ErrNotFound)
	}
	return nil
}

func nullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
