package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
	"dailybrief/internal/scoring"
)

// FeedDeps wires the read path and the feedback intake.
type FeedDeps struct {
	Cache       ports.CacheRepository
	Users       ports.UserRepository
	Feedback    ports.FeedbackRepository
	Preferences *scoring.Preferences
	Weights     *scoring.WeightStore
	Logger      *slog.Logger
}

// Feed serves cached bundles and folds user feedback into the learners.
type Feed struct {
	deps FeedDeps
}

// NewFeed constructs the read-path service.
func NewFeed(deps FeedDeps) *Feed {
	return &Feed{deps: deps}
}

// CachedBundle returns the user's bundle for the given day, or
// domain.ErrBundleNotReady when the batch has not produced one yet.
func (f *Feed) CachedBundle(ctx context.Context, userID string, day time.Time) (domain.Bundle, error) {
	return f.deps.Cache.Bundle(ctx, userID, day)
}

// CachedScript returns the companion script for the user's bundle. Users
// without a premium profile, and bundles generated without a script, get
// domain.ErrNotFound.
func (f *Feed) CachedScript(ctx context.Context, userID string, day time.Time) (string, error) {
	profile, err := f.deps.Users.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !profile.Premium {
		return "", domain.ErrNotFound
	}

	bundle, err := f.deps.Cache.Bundle(ctx, userID, day)
	if err != nil {
		return "", err
	}
	if bundle.Script == "" {
		return "", domain.ErrNotFound
	}
	return bundle.Script, nil
}

// SubmitFeedback validates and records one reaction, updating the preference
// learner and the adaptive weight store. The predicted relevance is resolved
// from the user's bundle for the day; an unknown article gets the neutral 50.
func (f *Feed) SubmitFeedback(ctx context.Context, userID string, articleID int64, rating int, comment string, day time.Time) error {
	if !domain.ValidRating(rating) {
		return fmt.Errorf("rating %d: must be -1, 0 or 1", rating)
	}
	if _, err := f.deps.Users.Profile(ctx, userID); err != nil {
		return err
	}

	event := domain.FeedbackEvent{
		UserID:    userID,
		ArticleID: articleID,
		Rating:    rating,
		Predicted: 50,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	bundle, err := f.deps.Cache.Bundle(ctx, userID, day)
	if err != nil && !errors.Is(err, domain.ErrBundleNotReady) {
		return fmt.Errorf("resolve bundle: %w", err)
	}
	for _, item := range bundle.Items {
		if item.ID == articleID {
			// Canonical casing: classifier output and profile interests must
			// resolve to the same learner keys.
			event.Category = strings.ToLower(strings.TrimSpace(item.Category))
			event.Subcategory = domain.NormalizeSubcategory(item.Subcategory)
			event.Predicted = item.RelevanceScore * 100
			break
		}
	}

	if err := f.deps.Feedback.AppendFeedback(ctx, event); err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}

	if event.Category != "" && f.deps.Preferences != nil {
		f.deps.Preferences.Update(ctx, userID, scoring.PreferenceKey(event.Category, ""), rating)
		if event.Subcategory != "" {
			f.deps.Preferences.Update(ctx, userID, scoring.PreferenceKey(event.Category, event.Subcategory), rating)
		}
	}
	if f.deps.Weights != nil {
		f.deps.Weights.Record(ctx, event)
	}

	if f.deps.Logger != nil {
		f.deps.Logger.Debug("feedback recorded", "user", userID, "article", articleID, "rating", rating)
	}
	return nil
}
