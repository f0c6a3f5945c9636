package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

// HTMLPageSource scrapes headline anchors from a listing page using a
// configured selector.
type HTMLPageSource struct {
	name     string
	url      string
	selector string
	http     *http.Client
}

var _ ports.ArticleSource = (*HTMLPageSource)(nil)

// NewHTMLPageSource builds a scraping source. selector must match anchor
// elements; their text becomes the title and their href the article URL.
func NewHTMLPageSource(name, pageURL, selector string) *HTMLPageSource {
	if selector == "" {
		selector = "a.headline"
	}
	return &HTMLPageSource{
		name:     name,
		url:      pageURL,
		selector: selector,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the source in logs and stored articles.
func (s *HTMLPageSource) Name() string { return s.name }

// Fetch downloads the page and extracts matching anchors.
func (s *HTMLPageSource) Fetch(ctx context.Context, _ time.Time) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var articles []domain.Article
	doc.Find(s.selector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		href, ok := sel.Attr("href")
		if title == "" || !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		articles = append(articles, domain.Article{
			Title: title,
			URL:   base.ResolveReference(ref).String(),
		})
	})
	return articles, nil
}
