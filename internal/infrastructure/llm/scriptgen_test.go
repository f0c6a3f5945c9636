package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailybrief/internal/config"
	"dailybrief/internal/domain"
)

func testProfile() domain.UserProfile {
	return domain.UserProfile{UserID: "u1", Locale: "GB", Language: "en", Premium: true}
}

func testItems() []domain.BundleItem {
	return []domain.BundleItem{{Title: "Arsenal win", Category: "sports", RelevanceScore: 0.9}}
}

func TestGenerateScriptParsesChoice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Good morning!  "}}]}`))
	}))
	defer srv.Close()

	c := NewScriptClient(config.ScriptGenConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "key"})
	got, err := c.GenerateScript(context.Background(), testProfile(), testItems())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Good morning!" {
		t.Fatalf("script = %q", got)
	}
}

func TestGenerateScriptMissingKeyIsConfigError(t *testing.T) {
	t.Parallel()

	c := NewScriptClient(config.ScriptGenConfig{Endpoint: "https://example.org", Model: "m"})
	_, err := c.GenerateScript(context.Background(), testProfile(), testItems())
	if !errors.Is(err, domain.ErrAuthConfiguration) {
		t.Fatalf("missing key gave %v, want auth/config error", err)
	}
}

func TestGenerateScriptRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewScriptClient(config.ScriptGenConfig{Endpoint: srv.URL, Model: "m", APIKey: "key"})
	_, err := c.GenerateScript(context.Background(), testProfile(), testItems())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("429 gave %v, want rate-limit error", err)
	}
}

func TestGenerateScriptEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewScriptClient(config.ScriptGenConfig{Endpoint: srv.URL, Model: "m", APIKey: "key"})
	if _, err := c.GenerateScript(context.Background(), testProfile(), testItems()); err == nil {
		t.Fatal("empty choices accepted")
	}
}
