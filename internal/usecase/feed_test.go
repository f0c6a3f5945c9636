package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailybrief/internal/domain"
	"dailybrief/internal/scoring"
)

type memFeedback struct {
	mu     sync.Mutex
	events []domain.FeedbackEvent
}

func (m *memFeedback) AppendFeedback(_ context.Context, e domain.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func feedFixture(t *testing.T) (*Feed, *memFeedback, *scoring.Preferences, time.Time) {
	t.Helper()
	day := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	cache := newMemCache()
	cache.bundles[cacheKey("u1", day)] = domain.Bundle{
		GeneratedAt: day,
		Items: []domain.BundleItem{
			{ID: 42, Title: "Arsenal win", Category: "sports", Subcategory: "football_epl", RelevanceScore: 0.92},
		},
		Script: "Good morning!",
	}
	feedbackLog := &memFeedback{}
	prefs := scoring.NewPreferences(nil, nil)
	feed := NewFeed(FeedDeps{
		Cache:       cache,
		Users:       memUsers{profiles: []domain.UserProfile{{UserID: "u1", Premium: true}, {UserID: "u2"}}},
		Feedback:    feedbackLog,
		Preferences: prefs,
		Weights:     scoring.NewWeightStore(nil, nil),
	})
	return feed, feedbackLog, prefs, day
}

func TestCachedBundle(t *testing.T) {
	t.Parallel()

	feed, _, _, day := feedFixture(t)
	b, err := feed.CachedBundle(context.Background(), "u1", day)
	if err != nil {
		t.Fatalf("cached bundle: %v", err)
	}
	if len(b.Items) != 1 || b.Items[0].ID != 42 {
		t.Fatalf("unexpected bundle: %+v", b)
	}

	if _, err := feed.CachedBundle(context.Background(), "u2", day); !errors.Is(err, domain.ErrBundleNotReady) {
		t.Fatalf("missing bundle gave %v, want not-ready", err)
	}
}

func TestCachedScriptPremiumOnly(t *testing.T) {
	t.Parallel()

	feed, _, _, day := feedFixture(t)
	script, err := feed.CachedScript(context.Background(), "u1", day)
	if err != nil {
		t.Fatalf("cached script: %v", err)
	}
	if script != "Good morning!" {
		t.Fatalf("script = %q", script)
	}

	if _, err := feed.CachedScript(context.Background(), "u2", day); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("free user gave %v, want not-found", err)
	}
}

func TestSubmitFeedbackUpdatesLearners(t *testing.T) {
	t.Parallel()

	feed, log, prefs, day := feedFixture(t)
	if err := feed.SubmitFeedback(context.Background(), "u1", 42, domain.RatingLike, "great", day); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(log.events) != 1 {
		t.Fatalf("logged %d events, want 1", len(log.events))
	}
	e := log.events[0]
	if e.Category != "sports" || e.Subcategory != "football_epl" {
		t.Errorf("event interest = %s/%s", e.Category, e.Subcategory)
	}
	if e.Predicted != 92 {
		t.Errorf("predicted = %.1f, want 92 from the bundled relevance", e.Predicted)
	}

	if got := prefs.Get("u1", "sports"); got != 0.6 {
		t.Errorf("category preference = %.2f, want 0.6", got)
	}
	if got := prefs.Get("u1", "sports/football_epl"); got != 0.6 {
		t.Errorf("subcategory preference = %.2f, want 0.6", got)
	}
}

func TestSubmitFeedbackNormalizesInterestKeys(t *testing.T) {
	t.Parallel()

	// A classifier that emits "Sports"/"Football_EPL" must still feed the
	// same learner keys the selector reads for a profile listing "epl".
	day := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	cache := newMemCache()
	cache.bundles[cacheKey("u1", day)] = domain.Bundle{
		GeneratedAt: day,
		Items: []domain.BundleItem{
			{ID: 7, Title: "Derby drama", Category: "Sports", Subcategory: "Football_EPL", RelevanceScore: 0.8},
		},
	}
	feedbackLog := &memFeedback{}
	prefs := scoring.NewPreferences(nil, nil)
	feed := NewFeed(FeedDeps{
		Cache:       cache,
		Users:       memUsers{profiles: []domain.UserProfile{{UserID: "u1"}}},
		Feedback:    feedbackLog,
		Preferences: prefs,
		Weights:     scoring.NewWeightStore(nil, nil),
	})

	for i := 0; i < 5; i++ {
		if err := feed.SubmitFeedback(context.Background(), "u1", 7, domain.RatingLike, "", day); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	e := feedbackLog.events[0]
	if e.Category != "sports" || e.Subcategory != "football_epl" {
		t.Errorf("event interest = %s/%s, want canonical sports/football_epl", e.Category, e.Subcategory)
	}
	if got := prefs.Get("u1", scoring.PreferenceKey("sports", "epl")); got != 1.0 {
		t.Errorf("canonical subcategory preference = %.2f, want 1.0 after 5 likes", got)
	}
	if got := prefs.Get("u1", "sports"); got != 1.0 {
		t.Errorf("canonical category preference = %.2f, want 1.0 after 5 likes", got)
	}
}

func TestSubmitFeedbackUnknownArticleDefaultsNeutral(t *testing.T) {
	t.Parallel()

	feed, log, _, day := feedFixture(t)
	if err := feed.SubmitFeedback(context.Background(), "u1", 999, domain.RatingDislike, "", day); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if log.events[0].Predicted != 50 {
		t.Fatalf("predicted = %.1f, want neutral 50", log.events[0].Predicted)
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	t.Parallel()

	feed, log, _, day := feedFixture(t)
	if err := feed.SubmitFeedback(context.Background(), "u1", 42, 5, "", day); err == nil {
		t.Fatal("rating 5 accepted")
	}
	if err := feed.SubmitFeedback(context.Background(), "ghost", 42, domain.RatingLike, "", day); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown user gave %v, want not-found", err)
	}
	if len(log.events) != 0 {
		t.Fatalf("invalid submissions logged %d events", len(log.events))
	}
}
