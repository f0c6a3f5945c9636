package scoring

import (
	"context"
	"log/slog"
	"sync"

	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

const (
	// feedbackWindow bounds how many recent events per user feed adaptation.
	feedbackWindow = 20
	// adaptEvery is the number of fresh events that triggers an adaptation pass.
	adaptEvery = 5

	multiplierFloor = 0.5
	multiplierCeil  = 2.0
)

// WeightStore keeps per-user adaptive multipliers over the base scoring
// weights and adjusts them from recorded feedback. All methods are safe for
// concurrent use.
type WeightStore struct {
	mu   sync.Mutex
	repo ports.WeightRepository
	log  *slog.Logger

	multipliers map[string]map[string]float64
	window      map[string][]domain.FeedbackEvent
	fresh       map[string]int
}

// NewWeightStore builds a store backed by repo. repo may be nil for
// in-memory-only operation (tests).
func NewWeightStore(repo ports.WeightRepository, log *slog.Logger) *WeightStore {
	return &WeightStore{
		repo:        repo,
		log:         log,
		multipliers: make(map[string]map[string]float64),
		window:      make(map[string][]domain.FeedbackEvent),
		fresh:       make(map[string]int),
	}
}

// Load restores persisted multipliers.
func (s *WeightStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	stored, err := s.repo.LoadWeights(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, m := range stored {
		s.multipliers[userID] = cloneMultipliers(m)
	}
	return nil
}

// Multipliers returns a copy of the user's current multipliers. Users with no
// adaptation history get the neutral 1.0 set.
func (s *WeightStore) Multipliers(userID string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.multipliers[userID]
	if !ok {
		return neutralMultipliers()
	}
	return cloneMultipliers(m)
}

// Record appends one feedback event to the user's window and, once enough
// fresh events have accumulated, adapts the user's multipliers and persists
// them.
func (s *WeightStore) Record(ctx context.Context, event domain.FeedbackEvent) {
	s.mu.Lock()

	w := append(s.window[event.UserID], event)
	if len(w) > feedbackWindow {
		w = w[len(w)-feedbackWindow:]
	}
	s.window[event.UserID] = w
	s.fresh[event.UserID]++

	if s.fresh[event.UserID] < adaptEvery {
		s.mu.Unlock()
		return
	}
	s.fresh[event.UserID] = 0
	adapted := s.adaptLocked(event.UserID)
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.SaveWeights(ctx, event.UserID, adapted); err != nil && s.log != nil {
		s.log.Error("persist adaptive weights", "user", event.UserID, "error", err)
	}
}

// adaptLocked recomputes the user's multipliers from the feedback window.
// Caller holds s.mu.
func (s *WeightStore) adaptLocked(userID string) map[string]float64 {
	window := s.window[userID]
	m, ok := s.multipliers[userID]
	if !ok {
		m = neutralMultipliers()
		s.multipliers[userID] = m
	}

	var correct, positive, negative int
	for _, ev := range window {
		switch ev.Rating {
		case domain.RatingLike:
			positive++
			if ev.Predicted >= 70 {
				correct++
			}
		case domain.RatingDislike:
			negative++
			if ev.Predicted <= 30 {
				correct++
			}
		default:
			if ev.Predicted >= 40 && ev.Predicted <= 60 {
				correct++
			}
		}
	}

	n := float64(len(window))
	accuracy := float64(correct) / n
	switch {
	case accuracy < 0.6:
		scale(m, Features, 0.95)
	case accuracy > 0.8:
		scale(m, Features, 1.02)
	}

	interest := []string{FeatureCategory, FeatureSubcategory}
	if float64(negative)/n > 0.4 {
		scale(m, interest, 0.9)
	}
	if float64(positive)/n > 0.6 {
		scale(m, interest, 1.05)
	}

	if s.log != nil {
		s.log.Debug("adapted weights", "user", userID, "accuracy", accuracy, "window", len(window))
	}
	return cloneMultipliers(m)
}

func scale(m map[string]float64, keys []string, factor float64) {
	for _, k := range keys {
		m[k] = clamp(m[k]*factor, multiplierFloor, multiplierCeil)
	}
}

func neutralMultipliers() map[string]float64 {
	m := make(map[string]float64, len(Features))
	for _, f := range Features {
		m[f] = 1.0
	}
	return m
}

func cloneMultipliers(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
