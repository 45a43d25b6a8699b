// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/silk2onion/paperlib/internal/httputil"
)

// openAlexWorksBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// openAlexLookupChunk bounds how many referenced works are resolved per
// filter query.
const openAlexLookupChunk = 50

// OpenAlexSource reads reference lists from the OpenAlex API. The work is
// looked up by DOI; its referenced_works ids are then resolved to titles
// and DOIs in batched filter queries.
type OpenAlexSource struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

type openAlexWork struct {
	ID              string   `json:"id"`
	DOI             string   `json:"doi"`
	DisplayName     string   `json:"display_name"`
	PublicationYear int      `json:"publication_year"`
	ReferencedWorks []string `json:"referenced_works"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
}

type openAlexList struct {
	Results []openAlexWork `json:"results"`
}

// References fetches /works/doi:{doi} and resolves its referenced_works.
func (s *OpenAlexSource) References(ctx context.Context, doi string) ([]RawReference, error) {
	doi = strings.ToLower(strings.TrimSpace(doi))
	if doi == "" {
		return nil, fmt.Errorf("openalex lookup requires a doi")
	}

	var work openAlexWork
	if err := s.get(ctx, openAlexWorksBase+"/doi:"+url.PathEscape(doi), nil, &work); err != nil {
		return nil, err
	}
	if len(work.ReferencedWorks) == 0 {
		return nil, nil
	}

	var refs []RawReference
	for start := 0; start < len(work.ReferencedWorks); start += openAlexLookupChunk {
		end := start + openAlexLookupChunk
		if end > len(work.ReferencedWorks) {
			end = len(work.ReferencedWorks)
		}
		chunk, err := s.lookup(ctx, work.ReferencedWorks[start:end])
		if err != nil {
			return nil, err
		}
		refs = append(refs, chunk...)
	}
	return refs, nil
}

// lookup resolves a batch of OpenAlex work ids to references.
func (s *OpenAlexSource) lookup(ctx context.Context, ids []string) ([]RawReference, error) {
	short := make([]string, 0, len(ids))
	for _, id := range ids {
		short = append(short, workID(id))
	}
	params := url.Values{
		"filter":   {"ids.openalex:" + strings.Join(short, "|")},
		"per-page": {fmt.Sprintf("%d", len(short))},
	}

	var list openAlexList
	if err := s.get(ctx, openAlexWorksBase, params, &list); err != nil {
		return nil, err
	}

	refs := make([]RawReference, 0, len(list.Results))
	for _, w := range list.Results {
		ref := RawReference{
			DOI:      bareDOI(w.DOI),
			Title:    w.DisplayName,
			Year:     w.PublicationYear,
			SourceID: workID(w.ID),
		}
		if len(w.Authorships) > 0 {
			ref.Author = w.Authorships[0].Author.DisplayName
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *OpenAlexSource) get(ctx context.Context, base string, params url.Values, out any) error {
	if s.Email != "" {
		if params == nil {
			params = url.Values{}
		}
		params.Set("mailto", s.Email)
	}
	reqURL := base
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// workID strips the https://openalex.org/ prefix from a work id.
func workID(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// bareDOI strips the https://doi.org/ prefix OpenAlex uses.
func bareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	return strings.ToLower(doi)
}
