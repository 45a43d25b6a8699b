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

const paperColumns = `id, kind, title, authors, abstract, year, venue, keywords, url,
	doi, arxiv_id, source, norm_title, embedding, citations_count, archived,
	created_at, updated_at`

func scanPaper(row interface{ Scan(...any) error }) (*types.Paper, error) {
	var (
		p          types.Paper
		kind       string
		authors    sql.NullString
		abstract   sql.NullString
		year       sql.NullInt64
		venue      sql.NullString
		keywords   sql.NullString
		url        sql.NullString
		doi        string
		arxivID    sql.NullString
		source     sql.NullString
		normTitle  sql.NullString
		embedding  sql.NullString
		archived   int
		created    string
		updated    string
	)
	err := row.Scan(&p.ID, &kind, &p.Title, &authors, &abstract, &year, &venue,
		&keywords, &url, &doi, &arxivID, &source, &normTitle, &embedding,
		&p.CitationsCount, &archived, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Kind = types.PaperKind(kind)
	p.Authors = unmarshalStrings(authors)
	p.Abstract = abstract.String
	p.Year = int(year.Int64)
	p.Venue = venue.String
	p.Keywords = unmarshalStrings(keywords)
	p.URL = url.String
	p.DOI = doi
	p.ArxivID = arxivID.String
	p.Source = source.String
	p.NormTitle = normTitle.String
	p.Embedding = unmarshalVector(embedding)
	p.Archived = archived != 0
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// CreatePaper inserts a new canonical record and assigns its id. The DOI is
// stored lowercased; a collision with an existing record returns
// ErrDOIConflict and nothing is written.
func (s *Store) CreatePaper(ctx context.Context, p *types.Paper) error {
	return s.insertPaper(ctx, s.db, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertPaper(ctx context.Context, db execer, p *types.Paper) error {
	if p.Kind == "" {
		p.Kind = types.KindFull
	}
	p.DOI = strings.ToLower(strings.TrimSpace(p.DOI))
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts

	res, err := db.ExecContext(ctx,
		`INSERT INTO papers (kind, title, authors, abstract, year, venue, keywords, url,
			doi, arxiv_id, source, norm_title, first_author, embedding, citations_count,
			archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.Kind), p.Title, marshalJSON(p.Authors), nullIfEmpty(p.Abstract),
		yearValue(p.Year), nullIfEmpty(p.Venue), marshalJSON(p.Keywords), nullIfEmpty(p.URL),
		p.DOI, nullIfEmpty(p.ArxivID), nullIfEmpty(p.Source), nullIfEmpty(p.NormTitle),
		nullIfEmpty(firstAuthorKey(p.Authors)), marshalJSON(p.Embedding), p.CitationsCount,
		boolValue(p.Archived), formatTime(ts), formatTime(ts),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting paper %q: %w", p.Title, ErrDOIConflict)
		}
		return fmt.Errorf("inserting paper: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading paper id: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePaper rewrites all mutable fields of an existing record. The id,
// kind transitions, and created_at are caller responsibilities.
func (s *Store) UpdatePaper(ctx context.Context, p *types.Paper) error {
	return s.updatePaper(ctx, s.db, p)
}

func (s *Store) updatePaper(ctx context.Context, db execer, p *types.Paper) error {
	p.DOI = strings.ToLower(strings.TrimSpace(p.DOI))
	p.UpdatedAt = now()

	res, err := db.ExecContext(ctx,
		`UPDATE papers SET kind=?, title=?, authors=?, abstract=?, year=?, venue=?,
			keywords=?, url=?, doi=?, arxiv_id=?, source=?, norm_title=?, first_author=?,
			embedding=?, citations_count=?, archived=?, updated_at=?
		 WHERE id=?`,
		string(p.Kind), p.Title, marshalJSON(p.Authors), nullIfEmpty(p.Abstract),
		yearValue(p.Year), nullIfEmpty(p.Venue), marshalJSON(p.Keywords), nullIfEmpty(p.URL),
		p.DOI, nullIfEmpty(p.ArxivID), nullIfEmpty(p.Source), nullIfEmpty(p.NormTitle),
		nullIfEmpty(firstAuthorKey(p.Authors)), marshalJSON(p.Embedding), p.CitationsCount,
		boolValue(p.Archived), formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating paper %d: %w", p.ID, ErrDOIConflict)
		}
		return fmt.Errorf("updating paper %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating paper %d: %w", p.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("paper %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

// GetPaper returns the paper with the given id, or ErrNotFound.
func (s *Store) GetPaper(ctx context.Context, id int64) (*types.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("paper %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading paper %d: %w", id, err)
	}
	return p, nil
}

// GetPaperByDOI returns the paper with the given DOI (case-insensitive),
// or ErrNotFound.
func (s *Store) GetPaperByDOI(ctx context.Context, doi string) (*types.Paper, error) {
	doi = strings.ToLower(strings.TrimSpace(doi))
	if doi == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE doi = ?`, doi)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading paper by doi: %w", err)
	}
	return p, nil
}

// GetPaperBySourceID returns the paper whose recorded provenance contains
// the (source, source id) pair, or ErrNotFound.
func (s *Store) GetPaperBySourceID(ctx context.Context, source, sourceID string) (*types.Paper, error) {
	if source == "" || sourceID == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.kind, p.title, p.authors, p.abstract, p.year, p.venue, p.keywords, p.url,
		 p.doi, p.arxiv_id, p.source, p.norm_title, p.embedding, p.citations_count, p.archived,
		 p.created_at, p.updated_at FROM papers p
		 JOIN paper_sources ps ON ps.paper_id = p.id
		 WHERE ps.source = ? AND ps.source_id = ?`, source, sourceID)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading paper by source id: %w", err)
	}
	return p, nil
}

// AddProvenance records that (source, source id) contributed to a paper.
// Re-recording the same pair is a no-op.
func (s *Store) AddProvenance(ctx context.Context, paperID int64, source, sourceID string) error {
	return s.addProvenance(ctx, s.db, paperID, source, sourceID)
}

func (s *Store) addProvenance(ctx context.Context, db execer, paperID int64, source, sourceID string) error {
	if source == "" || sourceID == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO paper_sources (paper_id, source, source_id) VALUES (?, ?, ?)`,
		paperID, source, sourceID)
	if err != nil {
		return fmt.Errorf("recording provenance for paper %d: %w", paperID, err)
	}
	return nil
}

// WeakMatchCandidates returns papers sharing the first-author surname
// (case-insensitive). When year is non-zero the pool is restricted to that
// exact year, keeping papers whose own year is unknown. A zero year
// disables the year filter entirely.
func (s *Store) WeakMatchCandidates(ctx context.Context, surname string, year int) ([]*types.Paper, error) {
	surname = strings.ToLower(strings.TrimSpace(surname))
	if surname == "" {
		return nil, nil
	}

	query := `SELECT ` + paperColumns + ` FROM papers WHERE first_author = ?`
	args := []any{surname}
	if year != 0 {
		query += ` AND (year = ? OR year IS NULL)`
		args = append(args, year)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading weak-match candidates: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

// SearchFilter restricts the embedded candidate pool for ranking.
type SearchFilter struct {
	YearFrom        int
	YearTo          int
	IncludeArchived bool
	GroupID         int64
}

// EmbeddedPapers returns every paper with a stored embedding that matches
// the filter. Papers without an embedding are excluded from ranking.
func (s *Store) EmbeddedPapers(ctx context.Context, f SearchFilter) ([]*types.Paper, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + paperColumns + ` FROM papers p`)
	var args []any
	if f.GroupID != 0 {
		sb.WriteString(` JOIN paper_groups pg ON pg.paper_id = p.id AND pg.group_id = ?`)
		args = append(args, f.GroupID)
	}
	sb.WriteString(` WHERE p.embedding IS NOT NULL`)
	if !f.IncludeArchived {
		sb.WriteString(` AND p.archived = 0`)
	}
	if f.YearFrom != 0 {
		sb.WriteString(` AND p.year >= ?`)
		args = append(args, f.YearFrom)
	}
	if f.YearTo != 0 {
		sb.WriteString(` AND p.year <= ?`)
		args = append(args, f.YearTo)
	}
	sb.WriteString(` ORDER BY p.id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("loading embedded papers: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

// MissingEmbeddings returns up to limit papers that have no stored vector,
// oldest first. Used by the reconciliation sweep and search diagnostics.
func (s *Store) MissingEmbeddings(ctx context.Context, limit int) ([]*types.Paper, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers
		 WHERE embedding IS NULL AND archived = 0
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading papers missing embeddings: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

// CountMissingEmbeddings reports how many unarchived papers still need a
// vector ("needs indexing" diagnostics).
func (s *Store) CountMissingEmbeddings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM papers WHERE embedding IS NULL AND archived = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers missing embeddings: %w", err)
	}
	return n, nil
}

// SetEmbedding stores a freshly computed vector for a paper.
func (s *Store) SetEmbedding(ctx context.Context, id int64, vec []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET embedding = ?, updated_at = ? WHERE id = ?`,
		marshalJSON(vec), formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("storing embedding for paper %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("paper %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetArchived flips the archived flag on a set of papers and returns how
// many rows changed.
func (s *Store) SetArchived(ctx context.Context, ids []int64, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+2)
	args = append(args, boolValue(archived), formatTime(now()))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET archived = ?, updated_at = ? WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("archiving papers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archiving papers: %w", err)
	}
	return n, nil
}

func collectPapers(rows *sql.Rows) ([]*types.Paper, error) {
	var out []*types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// firstAuthorKey derives the lowercased surname of the first author, the
// blocking key for weak matching. Handles both "Jane Doe" and "Doe, Jane".
func firstAuthorKey(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	name := strings.TrimSpace(authors[0])
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, ','); i >= 0 {
		return strings.ToLower(strings.TrimSpace(name[:i]))
	}
	fields := strings.Fields(name)
	return strings.ToLower(fields[len(fields)-1])
}

func yearValue(y int) any {
	if y == 0 {
		return nil
	}
	return y
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
