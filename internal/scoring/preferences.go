package scoring

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

const (
	preferenceDefault = 0.5
	preferenceStep    = 0.1
	preferenceDrift   = 0.05
)

// PreferenceKey builds the canonical stored key for a category or a
// category/subcategory pair. Both halves are normalized so that feedback
// written from classifier output and lookups driven by profile interests
// land on the same key regardless of casing or shorthand.
func PreferenceKey(category, subcategory string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if subcategory == "" {
		return category
	}
	return category + "/" + domain.NormalizeSubcategory(subcategory)
}

// Preferences tracks learned per-user interest strengths in [0,1], keyed by
// category or category/subcategory. Unknown keys read as the neutral 0.5.
type Preferences struct {
	mu   sync.RWMutex
	repo ports.PreferenceRepository
	log  *slog.Logger

	values map[string]map[string]float64
}

// NewPreferences builds a learner backed by repo. repo may be nil (tests).
func NewPreferences(repo ports.PreferenceRepository, log *slog.Logger) *Preferences {
	return &Preferences{
		repo:   repo,
		log:    log,
		values: make(map[string]map[string]float64),
	}
}

// Load restores persisted preference values.
func (p *Preferences) Load(ctx context.Context) error {
	if p.repo == nil {
		return nil
	}
	stored, err := p.repo.LoadPreferences(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, m := range stored {
		dst := make(map[string]float64, len(m))
		for k, v := range m {
			dst[k] = v
		}
		p.values[userID] = dst
	}
	return nil
}

// Get returns the learned strength for the key, or 0.5 when unseen.
func (p *Preferences) Get(userID, key string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if m, ok := p.values[userID]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return preferenceDefault
}

// Update folds one rating into the key's strength and persists the result.
// Likes move it up by 0.1, dislikes down by 0.1, neutral drifts it 0.05
// toward the 0.5 midpoint.
func (p *Preferences) Update(ctx context.Context, userID, key string, rating int) {
	p.mu.Lock()
	m, ok := p.values[userID]
	if !ok {
		m = make(map[string]float64)
		p.values[userID] = m
	}
	v, ok := m[key]
	if !ok {
		v = preferenceDefault
	}

	switch rating {
	case domain.RatingLike:
		v = clamp(v+preferenceStep, 0, 1)
	case domain.RatingDislike:
		v = clamp(v-preferenceStep, 0, 1)
	default:
		switch {
		case v > preferenceDefault:
			v = max(preferenceDefault, v-preferenceDrift)
		case v < preferenceDefault:
			v = min(preferenceDefault, v+preferenceDrift)
		}
	}
	m[key] = v
	p.mu.Unlock()

	if p.repo == nil {
		return
	}
	if err := p.repo.SavePreference(ctx, userID, key, v); err != nil && p.log != nil {
		p.log.Error("persist preference", "user", userID, "key", key, "error", err)
	}
}
