package ports

import (
	"context"
	"time"

	"dailybrief/internal/domain"
)

// ArticleSource pulls fresh articles from one upstream provider.
type ArticleSource interface {
	Name() string
	Fetch(ctx context.Context, day time.Time) ([]domain.Article, error)
}

// Classifier sends article text to the external classification service.
type Classifier interface {
	Classify(ctx context.Context, text, localeHint string) (domain.Classification, error)
}

// Summarizer generates advisory summaries. Best-effort: callers substitute
// a placeholder on failure.
type Summarizer interface {
	Summarize(ctx context.Context, text, category string) (string, error)
}

// ScriptGenerator produces a companion script from a user's bundle.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, profile domain.UserProfile, items []domain.BundleItem) (string, error)
}

// ArticleRepository persists the shared classified-article pool.
type ArticleRepository interface {
	// UpsertArticle inserts the article keyed by URL, backfilling analysis
	// fields on already-seen URLs, and returns the stored row id.
	UpsertArticle(ctx context.Context, article domain.ClassifiedArticle) (int64, error)
	ArticlesSince(ctx context.Context, since time.Time) ([]domain.ClassifiedArticle, error)
	DeleteArticlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CacheRepository holds one bundle per (user, date), upserted idempotently.
type CacheRepository interface {
	UpsertBundle(ctx context.Context, userID string, day time.Time, bundle domain.Bundle) error
	Bundle(ctx context.Context, userID string, day time.Time) (domain.Bundle, error)
	DeleteBundlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// FeedbackRepository is the append-only feedback log.
type FeedbackRepository interface {
	AppendFeedback(ctx context.Context, event domain.FeedbackEvent) error
}

// PreferenceRepository persists learned per-user per-key preferences.
type PreferenceRepository interface {
	LoadPreferences(ctx context.Context) (map[string]map[string]float64, error)
	SavePreference(ctx context.Context, userID, key string, value float64) error
}

// WeightRepository persists per-user adaptive weight multipliers.
type WeightRepository interface {
	LoadWeights(ctx context.Context) (map[string]map[string]float64, error)
	SaveWeights(ctx context.Context, userID string, multipliers map[string]float64) error
}

// UserRepository exposes profiles owned by the identity subsystem.
type UserRepository interface {
	AllProfiles(ctx context.Context) ([]domain.UserProfile, error)
	Profile(ctx context.Context, userID string) (domain.UserProfile, error)
}

// Scheduler controls when the daily pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
