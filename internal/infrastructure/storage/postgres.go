package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

// Store persists articles, bundles, feedback, learned preferences, adaptive
// weights and user profiles in Postgres.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*Store)(nil)
var _ ports.CacheRepository = (*Store)(nil)
var _ ports.FeedbackRepository = (*Store)(nil)
var _ ports.PreferenceRepository = (*Store)(nil)
var _ ports.WeightRepository = (*Store)(nil)
var _ ports.UserRepository = (*Store)(nil)

// NewStore wires a sql.DB implementation.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertArticle inserts the article keyed by URL. On conflict the analysis
// columns are backfilled so a later successful classification replaces an
// earlier keyword-fallback result.
func (s *Store) UpsertArticle(ctx context.Context, a domain.ClassifiedArticle) (int64, error) {
	contextual, err := json.Marshal(a.Classification.Contextual)
	if err != nil {
		return 0, fmt.Errorf("marshal contextual factors: %w", err)
	}

	query, args, err := s.builder.
		Insert("articles").
		Columns(
			"url", "title", "description", "content", "source", "language",
			"published_at", "category", "subcategory", "confidence",
			"importance_score", "reasons", "contextual", "ai_classified",
			"summary", "fetched_at",
		).
		Values(
			a.Article.URL, a.Article.Title, a.Article.Description, a.Article.Content,
			a.Article.Source, a.Article.Language, a.Article.PublishedAt,
			a.Classification.Category, a.Classification.Subcategory,
			a.Classification.Confidence, a.Classification.ImportanceScore,
			a.Classification.Reasons, contextual, a.Classification.AIClassified,
			a.Summary, a.FetchedAt,
		).
		Suffix(`ON CONFLICT (url) DO UPDATE
			SET category = EXCLUDED.category,
			    subcategory = EXCLUDED.subcategory,
			    confidence = EXCLUDED.confidence,
			    importance_score = EXCLUDED.importance_score,
			    reasons = EXCLUDED.reasons,
			    contextual = EXCLUDED.contextual,
			    ai_classified = EXCLUDED.ai_classified,
			    summary = EXCLUDED.summary,
			    updated_at = NOW()
			RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert article: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert article: %w", err)
	}
	return id, nil
}

// ArticlesSince loads the shared classified pool fetched at or after since.
func (s *Store) ArticlesSince(ctx context.Context, since time.Time) ([]domain.ClassifiedArticle, error) {
	query, args, err := s.builder.
		Select(
			"id", "url", "title", "description", "content", "source", "language",
			"published_at", "category", "subcategory", "confidence",
			"importance_score", "reasons", "contextual", "ai_classified",
			"summary", "fetched_at",
		).
		From("articles").
		Where(sq.GtOrEq{"fetched_at": since}).
		OrderBy("fetched_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.ClassifiedArticle
	for rows.Next() {
		var a domain.ClassifiedArticle
		var contextual []byte
		if err := rows.Scan(
			&a.ID, &a.Article.URL, &a.Article.Title, &a.Article.Description,
			&a.Article.Content, &a.Article.Source, &a.Article.Language,
			&a.Article.PublishedAt, &a.Classification.Category,
			&a.Classification.Subcategory, &a.Classification.Confidence,
			&a.Classification.ImportanceScore, &a.Classification.Reasons,
			&contextual, &a.Classification.AIClassified, &a.Summary, &a.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if len(contextual) > 0 {
			if err := json.Unmarshal(contextual, &a.Classification.Contextual); err != nil {
				return nil, fmt.Errorf("unmarshal contextual factors: %w", err)
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// DeleteArticlesOlderThan removes articles fetched before cutoff.
func (s *Store) DeleteArticlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.builder.
		Delete("articles").
		Where(sq.Lt{"fetched_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete articles: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UpsertBundle stores the bundle for (user, day), replacing any earlier
// bundle for the same day so reruns are idempotent.
func (s *Store) UpsertBundle(ctx context.Context, userID string, day time.Time, bundle domain.Bundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	query, args, err := s.builder.
		Insert("bundles").
		Columns("user_id", "bundle_date", "payload", "generated_at").
		Values(userID, day.Format("2006-01-02"), payload, bundle.GeneratedAt).
		Suffix(`ON CONFLICT (user_id, bundle_date) DO UPDATE
			SET payload = EXCLUDED.payload,
			    generated_at = EXCLUDED.generated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert bundle: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	return nil
}

// Bundle loads the cached bundle for (user, day).
func (s *Store) Bundle(ctx context.Context, userID string, day time.Time) (domain.Bundle, error) {
	query, args, err := s.builder.
		Select("payload").
		From("bundles").
		Where(sq.Eq{"user_id": userID, "bundle_date": day.Format("2006-01-02")}).
		ToSql()
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("build select bundle: %w", err)
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bundle{}, domain.ErrBundleNotReady
	}
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("query bundle: %w", err)
	}

	var bundle domain.Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return domain.Bundle{}, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return bundle, nil
}

// DeleteBundlesOlderThan removes bundles generated before cutoff.
func (s *Store) DeleteBundlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.builder.
		Delete("bundles").
		Where(sq.Lt{"bundle_date": cutoff.Format("2006-01-02")}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete bundles: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete bundles: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AppendFeedback records one feedback event. The log is append-only.
func (s *Store) AppendFeedback(ctx context.Context, e domain.FeedbackEvent) error {
	query, args, err := s.builder.
		Insert("feedback_events").
		Columns("user_id", "article_id", "category", "subcategory", "rating", "predicted", "comment", "created_at").
		Values(e.UserID, e.ArticleID, e.Category, e.Subcategory, e.Rating, e.Predicted, e.Comment, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert feedback: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// LoadPreferences loads every learned preference, grouped by user.
func (s *Store) LoadPreferences(ctx context.Context) (map[string]map[string]float64, error) {
	return s.loadKeyed(ctx, "preferences", "pref_key", "value")
}

// SavePreference upserts one learned preference value.
func (s *Store) SavePreference(ctx context.Context, userID, key string, value float64) error {
	query, args, err := s.builder.
		Insert("preferences").
		Columns("user_id", "pref_key", "value").
		Values(userID, key, value).
		Suffix(`ON CONFLICT (user_id, pref_key) DO UPDATE
			SET value = EXCLUDED.value,
			    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert preference: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// LoadWeights loads every adaptive multiplier, grouped by user.
func (s *Store) LoadWeights(ctx context.Context) (map[string]map[string]float64, error) {
	return s.loadKeyed(ctx, "adaptive_weights", "feature", "multiplier")
}

// SaveWeights upserts the user's full multiplier set in one transaction.
func (s *Store) SaveWeights(ctx context.Context, userID string, multipliers map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for feature, m := range multipliers {
		query, args, err := s.builder.
			Insert("adaptive_weights").
			Columns("user_id", "feature", "multiplier").
			Values(userID, feature, m).
			Suffix(`ON CONFLICT (user_id, feature) DO UPDATE
				SET multiplier = EXCLUDED.multiplier,
				    updated_at = NOW()`).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build upsert weight: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert weight %s: %w", feature, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weights: %w", err)
	}
	return nil
}

// AllProfiles loads every stored user profile.
func (s *Store) AllProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	query, args, err := s.builder.
		Select("user_id", "locale", "city", "language", "premium", "interests").
		From("users").
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Profile loads one user profile.
func (s *Store) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	query, args, err := s.builder.
		Select("user_id", "locale", "city", "language", "premium", "interests").
		From("users").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("build select user: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return p, err
}

func scanProfile(scan func(...any) error) (domain.UserProfile, error) {
	var p domain.UserProfile
	var interests []byte
	if err := scan(&p.UserID, &p.Locale, &p.City, &p.Language, &p.Premium, &interests); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, err
		}
		return domain.UserProfile{}, fmt.Errorf("scan user: %w", err)
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return domain.UserProfile{}, fmt.Errorf("unmarshal interests for %s: %w", p.UserID, err)
		}
	}
	return p, nil
}

func (s *Store) loadKeyed(ctx context.Context, table, keyCol, valCol string) (map[string]map[string]float64, error) {
	query, args, err := s.builder.
		Select("user_id", keyCol, valCol).
		From(table).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]map[string]float64)
	for rows.Next() {
		var userID, key string
		var value float64
		if err := rows.Scan(&userID, &key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		m, ok := out[userID]
		if !ok {
			m = make(map[string]float64)
			out[userID] = m
		}
		m[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
