// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCrossrefReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/works/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body := `{
			"message": {
				"reference": [
					{"DOI": "10.1/A", "article-title": "Paper A", "year": "2019"},
					{"unstructured": "Doe J. Some unstructured reference. 2018.", "issued": {"date-parts": [[2018, 6]]}},
					{"journal-title": "Fallback Journal"},
					{}
				]
			}
		}`
		w.Write([]byte(body))
	}))
	defer srv.Close()

	orig := crossrefWorksBase
	crossrefWorksBase = srv.URL + "/works"
	defer func() { crossrefWorksBase = orig }()

	src := &CrossrefSource{Client: srv.Client(), UserAgent: "paperlib-test"}
	refs, err := src.References(context.Background(), "10.5555/Citing")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 4 {
		t.Fatalf("expected 4 references, got %d", len(refs))
	}
	if refs[0].DOI != "10.1/a" || refs[0].Title != "Paper A" || refs[0].Year != 2019 {
		t.Errorf("first reference wrong: %+v", refs[0])
	}
	if refs[1].Year != 2018 || !strings.Contains(refs[1].Title, "unstructured") {
		t.Errorf("date-parts year or unstructured title wrong: %+v", refs[1])
	}
	if refs[2].Title != "Fallback Journal" {
		t.Errorf("title fallback wrong: %+v", refs[2])
	}
	if refs[3].DOI != "" || refs[3].Title != "" {
		t.Errorf("empty reference must stay empty: %+v", refs[3])
	}
}

func TestCrossrefRequiresDOI(t *testing.T) {
	src := &CrossrefSource{}
	if _, err := src.References(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty doi")
	}
}

func TestOpenAlexReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/works/doi:"):
			json.NewEncoder(w).Encode(map[string]any{
				"id":               "https://openalex.org/W1",
				"referenced_works": []string{"https://openalex.org/W2", "https://openalex.org/W3"},
			})
		case r.URL.Path == "/works":
			filter := r.URL.Query().Get("filter")
			if filter != "ids.openalex:W2|W3" {
				t.Errorf("unexpected filter %q", filter)
			}
			if r.URL.Query().Get("mailto") != "ops@example.org" {
				t.Errorf("missing mailto parameter")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{
						"id":               "https://openalex.org/W2",
						"doi":              "https://doi.org/10.2/B",
						"display_name":     "Paper B",
						"publication_year": 2020,
					},
					{
						"id":           "https://openalex.org/W3",
						"display_name": "Paper C",
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	orig := openAlexWorksBase
	openAlexWorksBase = srv.URL + "/works"
	defer func() { openAlexWorksBase = orig }()

	src := &OpenAlexSource{Client: srv.Client(), Email: "ops@example.org"}
	refs, err := src.References(context.Background(), "10.5555/citing")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].DOI != "10.2/b" || refs[0].SourceID != "W2" || refs[0].Year != 2020 {
		t.Errorf("first reference wrong: %+v", refs[0])
	}
	if refs[1].Title != "Paper C" || refs[1].DOI != "" {
		t.Errorf("second reference wrong: %+v", refs[1])
	}
}

func TestOpenAlexNoReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "https://openalex.org/W1"})
	}))
	defer srv.Close()

	orig := openAlexWorksBase
	openAlexWorksBase = srv.URL + "/works"
	defer func() { openAlexWorksBase = orig }()

	src := &OpenAlexSource{Client: srv.Client()}
	refs, err := src.References(context.Background(), "10.5555/leaf")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no references, got %d", len(refs))
	}
}
