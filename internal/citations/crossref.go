// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/silk2onion/paperlib/internal/httputil"
)

// crossrefWorksBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

// CrossrefSource reads reference lists from the Crossref works API.
type CrossrefSource struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the source identifier.
func (s *CrossrefSource) Name() string { return "crossref" }

type crossrefReference struct {
	DOI          string          `json:"DOI"`
	Author       string          `json:"author"`
	ArticleTitle string          `json:"article-title"`
	JournalTitle string          `json:"journal-title"`
	SeriesTitle  string          `json:"series-title"`
	VolumeTitle  string          `json:"volume-title"`
	Unstructured string          `json:"unstructured"`
	Year         json.RawMessage `json:"year"`
	Issued       *struct {
		DateParts [][]json.Number `json:"date-parts"`
	} `json:"issued"`
}

type crossrefWork struct {
	Message struct {
		Reference []crossrefReference `json:"reference"`
	} `json:"message"`
}

// References fetches /works/{doi} and normalizes message.reference entries.
func (s *CrossrefSource) References(ctx context.Context, doi string) ([]RawReference, error) {
	doi = strings.ToLower(strings.TrimSpace(doi))
	if doi == "" {
		return nil, fmt.Errorf("crossref lookup requires a doi")
	}

	reqURL := crossrefWorksBase + "/" + url.PathEscape(doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var work crossrefWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	refs := make([]RawReference, 0, len(work.Message.Reference))
	for _, ref := range work.Message.Reference {
		refs = append(refs, RawReference{
			DOI:          strings.ToLower(strings.TrimSpace(ref.DOI)),
			Title:        firstNonEmpty(ref.ArticleTitle, ref.JournalTitle, ref.SeriesTitle, ref.VolumeTitle, ref.Unstructured),
			Author:       strings.TrimSpace(ref.Author),
			Year:         crossrefYear(ref),
			Unstructured: ref.Unstructured,
		})
	}
	return refs, nil
}

// crossrefYear digs the publication year out of either the flat "year"
// field (int or string) or issued.date-parts.
func crossrefYear(ref crossrefReference) int {
	if len(ref.Year) > 0 {
		raw := strings.Trim(string(ref.Year), `"`)
		if len(raw) > 4 {
			raw = raw[:4]
		}
		if y, err := strconv.Atoi(raw); err == nil {
			return y
		}
	}
	if ref.Issued != nil && len(ref.Issued.DateParts) > 0 && len(ref.Issued.DateParts[0]) > 0 {
		raw := ref.Issued.DateParts[0][0].String()
		if len(raw) > 4 {
			raw = raw[:4]
		}
		if y, err := strconv.Atoi(raw); err == nil {
			return y
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
