package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/domain"
)

func TestNewsAPISourceFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		_, _ = w.Write([]byte(`{"articles":[
			{"title":"Summit reached","description":"Leaders agree","url":"https://n.example/1","publishedAt":"2026-08-28T06:00:00Z","source":{"name":"Wire"}},
			{"title":"","url":"https://n.example/skipme"}
		]}`))
	}))
	defer srv.Close()

	s := NewNewsAPISource("newsapi-top", srv.URL, "secret")
	got, err := s.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("fetched %d articles, want 1", len(got))
	}
	if got[0].Title != "Summit reached" || got[0].Source != "Wire" {
		t.Errorf("unexpected article: %+v", got[0])
	}
}

func TestNewsAPISourceAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewNewsAPISource("newsapi-top", srv.URL, "bad").Fetch(context.Background(), time.Now())
	if !errors.Is(err, domain.ErrAuthConfiguration) {
		t.Fatalf("401 gave %v, want auth/config error", err)
	}
}

func TestHTMLPageSourceFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a class="headline" href="/story/1"> First story </a>
			<a class="headline" href="https://other.example/2">Second story</a>
			<a class="other" href="/ignored">Ignored</a>
		</body></html>`))
	}))
	defer srv.Close()

	s := NewHTMLPageSource("frontpage", srv.URL, "a.headline")
	got, err := s.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fetched %d articles, want 2", len(got))
	}
	if got[0].Title != "First story" {
		t.Errorf("title = %q, want trimmed text", got[0].Title)
	}
	if got[0].URL != srv.URL+"/story/1" {
		t.Errorf("relative href not resolved: %q", got[0].URL)
	}
	if got[1].URL != "https://other.example/2" {
		t.Errorf("absolute href rewritten: %q", got[1].URL)
	}
}

func TestRegistryIsolatesFailingSource(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"articles":[{"title":"Only story","url":"https://n.example/1","source":{"name":"Wire"}}]}`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	reg, err := NewRegistry([]config.SourceConfig{
		{Name: "good", Kind: "newsapi", URL: good.URL},
		{Name: "bad", Kind: "newsapi", URL: bad.URL},
	}, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	got := reg.FetchAll(context.Background(), time.Now())
	if len(got) != 1 {
		t.Fatalf("aggregated %d articles, want 1 from the healthy source", len(got))
	}
	if got[0].Source != "Wire" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry([]config.SourceConfig{{Name: "x", Kind: "carrier-pigeon"}}, nil); err == nil {
		t.Fatal("unknown source kind accepted")
	}
}
