package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dailybrief/internal/config"
	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
	"dailybrief/internal/retry"
	"dailybrief/internal/scoring"
	"dailybrief/internal/selection"
)

// placeholderSummary substitutes for a failed advisory summary so bundles
// never ship empty summary fields.
const placeholderSummary = "Summary unavailable."

// apologyScript substitutes for a failed companion-script generation.
const apologyScript = "Sorry, the companion script could not be generated at this time."

// Fetcher aggregates articles across all configured sources.
type Fetcher interface {
	FetchAll(ctx context.Context, day time.Time) []domain.Article
}

// PipelineDeps wires all driven adapters into the daily batch pipeline.
type PipelineDeps struct {
	Fetcher     Fetcher
	Classifier  ports.Classifier
	Fallback    ports.Classifier
	Summarizer  ports.Summarizer
	ScriptGen   ports.ScriptGenerator
	Articles    ports.ArticleRepository
	Cache       ports.CacheRepository
	Users       ports.UserRepository
	Scorer      *scoring.Scorer
	Selector    *selection.Selector
	Retry       retry.Policy
	Quality     config.QualityConfig
	Retention   config.RetentionConfig
	Workers     int
	Logger      *slog.Logger
}

// Pipeline implements the daily bundle workflow: fetch, filter, classify,
// persist, then score and cache one bundle per user.
type Pipeline struct {
	deps PipelineDeps
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Workers <= 0 {
		deps.Workers = 4
	}
	if deps.Retry.MaxAttempts == 0 {
		deps.Retry = retry.DefaultPolicy()
	}
	return &Pipeline{deps: deps}
}

// ProcessDay runs one full batch for the given day. Per-source, per-article
// and per-user failures degrade the output; only an authentication or
// configuration error aborts the run.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	runID := uuid.NewString()
	log := p.logger().With("run_id", runID, "day", day.Format("2006-01-02"))
	started := time.Now()
	log.Info("batch run started")

	articles := p.deps.Fetcher.FetchAll(ctx, day)
	log.Info("fetched", "articles", len(articles))

	articles = p.filterQuality(articles)
	articles = deduplicate(articles)
	log.Info("filtered", "articles", len(articles))

	if err := p.classifyAndPersist(ctx, log, articles); err != nil {
		return err
	}

	// Score against the persisted pool so articles classified on recent runs
	// stay candidates even when today's fetch missed them.
	pool, err := p.deps.Articles.ArticlesSince(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		return fmt.Errorf("load article pool: %w", err)
	}
	log.Info("classified pool ready", "articles", len(pool))

	profiles, err := p.deps.Users.AllProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	if err := p.buildBundles(ctx, log, day, profiles, pool); err != nil {
		return err
	}

	p.applyRetention(ctx, log, day)

	log.Info("batch run finished", "users", len(profiles), "elapsed", time.Since(started))
	return nil
}

func (p *Pipeline) filterQuality(articles []domain.Article) []domain.Article {
	q := p.deps.Quality
	out := articles[:0]
	for _, a := range articles {
		text := a.Text()
		if q.MinContentLength > 0 && len(text) < q.MinContentLength {
			continue
		}
		if q.MaxContentLength > 0 && len(text) > q.MaxContentLength {
			continue
		}
		if containsBanned(text, q.BannedKeywords) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func containsBanned(text string, banned []string) bool {
	if len(banned) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range banned {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// deduplicate drops repeated URLs and case-folded titles, keeping the first
// occurrence.
func deduplicate(articles []domain.Article) []domain.Article {
	seenURL := make(map[string]struct{}, len(articles))
	seenTitle := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		title := strings.ToLower(strings.TrimSpace(a.Title))
		if _, ok := seenURL[a.URL]; ok {
			continue
		}
		if _, ok := seenTitle[title]; ok {
			continue
		}
		seenURL[a.URL] = struct{}{}
		seenTitle[title] = struct{}{}
		out = append(out, a)
	}
	return out
}

// classifyAndPersist runs classification with fallback, summarization with a
// placeholder, and upserts each article into the shared pool.
func (p *Pipeline) classifyAndPersist(ctx context.Context, log *slog.Logger, articles []domain.Article) error {
	now := time.Now()

	for _, article := range articles {
		classification, err := p.classify(ctx, article)
		if err != nil {
			if errors.Is(err, domain.ErrAuthConfiguration) {
				return fmt.Errorf("classify %s: %w", article.URL, err)
			}
			cerr := &domain.ClassificationError{URL: article.URL, Err: err}
			log.Warn("classification degraded to fallback", "error", cerr)
			classification, _ = p.deps.Fallback.Classify(ctx, article.Text(), "")
		}

		summary := placeholderSummary
		if p.deps.Summarizer != nil {
			s, err := p.deps.Summarizer.Summarize(ctx, article.Text(), classification.Category)
			if err != nil {
				if errors.Is(err, domain.ErrAuthConfiguration) {
					return fmt.Errorf("summarize %s: %w", article.URL, err)
				}
				log.Warn("summary unavailable", "url", article.URL, "error", err)
			} else if s != "" {
				summary = s
			}
		}

		classified := domain.ClassifiedArticle{
			Article:        article,
			Classification: classification,
			Summary:        summary,
			FetchedAt:      now,
		}
		if _, err := p.deps.Articles.UpsertArticle(ctx, classified); err != nil {
			return fmt.Errorf("persist %s: %w", article.URL, err)
		}
	}
	return nil
}

// classify calls the remote classifier with rate-limit retries and falls
// back to keyword matching when the remote path stays unavailable.
func (p *Pipeline) classify(ctx context.Context, article domain.Article) (domain.Classification, error) {
	if p.deps.Classifier == nil {
		return p.deps.Fallback.Classify(ctx, article.Text(), article.Language)
	}

	var result domain.Classification
	err := p.deps.Retry.Do(ctx, func() error {
		var cerr error
		result, cerr = p.deps.Classifier.Classify(ctx, article.Text(), article.Language)
		return cerr
	})
	return result, err
}

// buildBundles scores, selects and caches one bundle per user with a bounded
// worker pool. A failing user never blocks the others.
func (p *Pipeline) buildBundles(ctx context.Context, log *slog.Logger, day time.Time, profiles []domain.UserProfile, pool []domain.ClassifiedArticle) error {
	sem := make(chan struct{}, p.deps.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var abort error

	for _, profile := range profiles {
		profile := profile
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := p.bundleForUser(ctx, day, profile, pool); err != nil {
				if errors.Is(err, domain.ErrAuthConfiguration) {
					mu.Lock()
					if abort == nil {
						abort = err
					}
					mu.Unlock()
					return
				}
				log.Error("bundle failed for user", "user", profile.UserID, "error", err)
			}
		}()
	}
	wg.Wait()
	return abort
}

func (p *Pipeline) bundleForUser(ctx context.Context, day time.Time, profile domain.UserProfile, pool []domain.ClassifiedArticle) error {
	scored := make([]domain.ClassifiedArticle, len(pool))
	copy(scored, pool)
	for i := range scored {
		scored[i].Relevance = p.deps.Scorer.Score(scored[i], profile)
	}

	picked := p.deps.Selector.Select(profile, scored)
	bundle := domain.Bundle{
		GeneratedAt: time.Now(),
		Items:       toBundleItems(picked),
	}

	if profile.Premium && p.deps.ScriptGen != nil {
		script, err := p.generateScript(ctx, profile, bundle.Items)
		if err != nil {
			if errors.Is(err, domain.ErrAuthConfiguration) {
				return err
			}
			p.logger().Warn("companion script fallback", "user", profile.UserID, "error", err)
			script = apologyScript
		}
		bundle.Script = script
	}

	if err := p.deps.Cache.UpsertBundle(ctx, profile.UserID, day, bundle); err != nil {
		return &domain.CacheWriteError{UserID: profile.UserID, Err: err}
	}
	return nil
}

func (p *Pipeline) generateScript(ctx context.Context, profile domain.UserProfile, items []domain.BundleItem) (string, error) {
	var script string
	err := p.deps.Retry.Do(ctx, func() error {
		var gerr error
		script, gerr = p.deps.ScriptGen.GenerateScript(ctx, profile, items)
		return gerr
	})
	return script, err
}

// applyRetention trims old articles and bundles. Failures only log: stale
// rows are a cost problem, not a correctness problem.
func (p *Pipeline) applyRetention(ctx context.Context, log *slog.Logger, day time.Time) {
	r := p.deps.Retention
	if r.ArticleDays > 0 {
		cutoff := day.AddDate(0, 0, -r.ArticleDays)
		if n, err := p.deps.Articles.DeleteArticlesOlderThan(ctx, cutoff); err != nil {
			log.Warn("article retention failed", "error", err)
		} else if n > 0 {
			log.Info("expired articles removed", "count", n)
		}
	}
	if r.CacheDays > 0 {
		cutoff := day.AddDate(0, 0, -r.CacheDays)
		if n, err := p.deps.Cache.DeleteBundlesOlderThan(ctx, cutoff); err != nil {
			log.Warn("bundle retention failed", "error", err)
		} else if n > 0 {
			log.Info("expired bundles removed", "count", n)
		}
	}
}

func toBundleItems(articles []domain.ClassifiedArticle) []domain.BundleItem {
	items := make([]domain.BundleItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, domain.BundleItem{
			ID:              a.ID,
			Title:           a.Article.Title,
			URL:             a.Article.URL,
			Source:          a.Article.Source,
			Category:        a.Classification.Category,
			Subcategory:     a.Classification.Subcategory,
			RelevanceScore:  a.Relevance,
			ImportanceScore: a.Classification.ImportanceScore,
			Confidence:      a.Classification.Confidence,
			Summary:         a.Summary,
		})
	}
	return items
}

func (p *Pipeline) logger() *slog.Logger {
	if p.deps.Logger != nil {
		return p.deps.Logger
	}
	return slog.Default()
}
