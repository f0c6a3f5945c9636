package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

// Registry aggregates the configured article sources. One failing source
// contributes zero articles and never fails the run.
type Registry struct {
	sources []ports.ArticleSource
	logger  *slog.Logger
}

// NewRegistry builds the source set from configuration. Unknown kinds are
// rejected so a config typo surfaces at startup, not silently at 6am.
func NewRegistry(cfgs []config.SourceConfig, log *slog.Logger) (*Registry, error) {
	reg := &Registry{logger: log}
	for _, c := range cfgs {
		switch c.Kind {
		case "newsapi":
			reg.sources = append(reg.sources, NewNewsAPISource(c.Name, c.URL, c.APIKey))
		case "rss":
			reg.sources = append(reg.sources, NewRSSSource(c.Name, c.FeedURLs))
		case "htmlpage":
			reg.sources = append(reg.sources, NewHTMLPageSource(c.Name, c.URL, c.ItemSelector))
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", c.Name, c.Kind)
		}
	}
	return reg, nil
}

// Sources exposes the registered sources.
func (r *Registry) Sources() []ports.ArticleSource { return r.sources }

// FetchAll pulls every source and aggregates whatever succeeded.
func (r *Registry) FetchAll(ctx context.Context, day time.Time) []domain.Article {
	var aggregated []domain.Article
	for _, src := range r.sources {
		articles, err := src.Fetch(ctx, day)
		if err != nil {
			fe := &domain.FetchError{Source: src.Name(), Err: err}
			r.debug("source failed", "source", src.Name(), "error", fe)
			if r.logger != nil {
				r.logger.Warn("source contributed no articles", "source", src.Name(), "error", err)
			}
			continue
		}
		for i := range articles {
			if articles[i].Source == "" {
				articles[i].Source = src.Name()
			}
		}
		r.debug("source produced articles", "source", src.Name(), "count", len(articles))
		aggregated = append(aggregated, articles...)
	}
	r.debug("fetch done", "total_articles", len(aggregated), "day", day.Format("2006-01-02"))
	return aggregated
}

func (r *Registry) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
