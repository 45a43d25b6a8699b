// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/silk2onion/paperlib/internal/httputil"
)

func embedHandler(t *testing.T, vec []float32, capture *embedRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		resp := map[string]any{
			"data": []map[string]any{{"embedding": vec}},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestEmbed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(embedHandler(t, []float32{0.1, 0.2}, &got))
	defer srv.Close()

	c := NewClient(
		WithBaseURL(srv.URL),
		WithAPIKey("sk-test"),
		WithModel("test-model"),
	)

	vec, err := c.Embed(context.Background(), "attention is all you need")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("unexpected vector: %v", vec)
	}
	if got.Model != "test-model" {
		t.Errorf("model not forwarded: %q", got.Model)
	}
	if got.Input != "attention is all you need" {
		t.Errorf("input not forwarded: %q", got.Input)
	}
}

func TestEmbedSendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		embedHandler(t, []float32{1}, nil)(w, r)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("sk-secret"))
	if _, err := c.Embed(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer sk-secret" {
		t.Errorf("expected bearer auth header, got %q", auth)
	}
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(embedHandler(t, []float32{1}, &got))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	long := strings.Repeat("a", maxInputRunes+500)
	if _, err := c.Embed(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if len([]rune(got.Input)) != maxInputRunes {
		t.Errorf("expected input truncated to %d runes, got %d", maxInputRunes, len([]rune(got.Input)))
	}
}

func TestEmbedRetriesWithBody(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = orig }()

	calls := 0
	var second embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		embedHandler(t, []float32{1}, &second)(w, r)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMaxRetries(2))
	if _, err := c.Embed(context.Background(), "retried text"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if second.Input != "retried text" {
		t.Errorf("retry lost the request body: %q", second.Input)
	}
}

func TestEmbedUnavailable(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = orig }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMaxRetries(1))
	_, err := c.Embed(context.Background(), "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbedEmptyResponseIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Embed(context.Background(), "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
