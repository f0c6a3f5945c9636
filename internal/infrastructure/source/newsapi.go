package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

// NewsAPISource pulls headlines from a NewsAPI-compatible JSON endpoint.
type NewsAPISource struct {
	name   string
	url    string
	apiKey string
	http   *http.Client
}

var _ ports.ArticleSource = (*NewsAPISource)(nil)

// NewNewsAPISource builds a source for one endpoint URL.
func NewNewsAPISource(name, url, apiKey string) *NewsAPISource {
	return &NewsAPISource{
		name:   name,
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the source in logs and stored articles.
func (s *NewsAPISource) Name() string { return s.name }

// Fetch downloads and decodes the headline listing.
func (s *NewsAPISource) Fetch(ctx context.Context, _ time.Time) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("newsapi %s: %w", resp.Status, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("newsapi %s: %w", resp.Status, domain.ErrAuthConfiguration)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: published,
		})
	}
	return articles, nil
}
