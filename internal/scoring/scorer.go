package scoring

import (
	"math"
	"strings"

	"dailybrief/internal/domain"
)

// Feature keys for adaptive weight multipliers.
const (
	FeatureImportance  = "importance"
	FeatureConfidence  = "confidence"
	FeatureCategory    = "category"
	FeatureSubcategory = "subcategory"
	FeatureLocale      = "locale"
	FeatureCriticality = "criticality"
)

// Features lists every multiplier key in a stable order.
var Features = []string{
	FeatureImportance,
	FeatureConfidence,
	FeatureCategory,
	FeatureSubcategory,
	FeatureLocale,
	FeatureCriticality,
}

// Weights are the base feature weights of the relevance model, applied in
// logit space before the calibrated sigmoid.
type Weights struct {
	Importance  float64
	Confidence  float64
	Category    float64
	Subcategory float64
	Locale      float64
	Criticality float64
	Bias        float64
	// Gamma compresses the upper tail of the sigmoid output slightly.
	Gamma float64
}

// DefaultWeights returns the calibrated base weights.
func DefaultWeights() Weights {
	return Weights{
		Importance:  1.0,
		Confidence:  0.8,
		Category:    0.9,
		Subcategory: 1.1,
		Locale:      0.6,
		Criticality: 0.8,
		Bias:        -0.2,
		Gamma:       0.95,
	}
}

// criticalityVocabulary is the fixed high-stakes token list. Presence of any
// token strengthens locale and importance boosts.
var criticalityVocabulary = []string{
	"final",
	"pandemic",
	"sanctions",
	"historic",
	"emergency",
	"record",
	"all-time",
	"war",
	"ban",
	"evacuation",
	"championship",
	"default",
	"grand slam",
}

// localeTerms maps ISO2 locale codes to lowercase tokens whose presence in
// article text counts as a locale match.
var localeTerms = map[string][]string{
	"US": {"united states", "u.s.", "america", "washington"},
	"GB": {"united kingdom", "britain", "british", "london"},
	"DE": {"germany", "german", "berlin", "bundestag"},
	"FR": {"france", "french", "paris"},
	"ES": {"spain", "spanish", "madrid"},
	"IT": {"italy", "italian", "rome"},
	"TR": {"turkey", "turkish", "istanbul", "ankara"},
	"JP": {"japan", "japanese", "tokyo"},
	"CN": {"china", "chinese", "beijing"},
	"IN": {"india", "indian", "delhi"},
	"CA": {"canada", "canadian", "ottawa", "toronto"},
	"AU": {"australia", "australian", "sydney", "canberra"},
	"UA": {"ukraine", "ukrainian", "kyiv"},
}

// MultiplierSource supplies per-user adaptive multipliers for the base
// weights. A nil source means every multiplier is 1.0.
type MultiplierSource interface {
	Multipliers(userID string) map[string]float64
}

// Scorer converts one classified article plus one user profile into a
// relevance value in [0,1]. Score has no side effects: it is a pure function
// of its inputs plus the user's current adaptive multipliers.
type Scorer struct {
	weights  Weights
	adaptive MultiplierSource
}

// NewScorer builds a scorer. adaptive may be nil.
func NewScorer(weights Weights, adaptive MultiplierSource) *Scorer {
	if weights.Gamma == 0 {
		weights.Gamma = DefaultWeights().Gamma
	}
	return &Scorer{weights: weights, adaptive: adaptive}
}

// Score computes the per-user relevance of an article.
func (s *Scorer) Score(article domain.ClassifiedArticle, profile domain.UserProfile) float64 {
	mult := func(feature string) float64 { return 1.0 }
	if s.adaptive != nil {
		m := s.adaptive.Multipliers(profile.UserID)
		mult = func(feature string) float64 {
			if v, ok := m[feature]; ok {
				return v
			}
			return 1.0
		}
	}

	c := article.Classification
	importance := float64(c.ImportanceScore)
	if c.ImportanceScore <= 0 {
		importance = 50 // neutral when the classifier left it unset
	}
	confidence := c.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}

	text := strings.ToLower(article.Article.Text() + " " + c.Reasons)
	critical := containsAny(text, criticalityVocabulary)

	z := s.weights.Importance * mult(FeatureImportance) * logit(clamp(importance/100, 0.01, 0.99))
	z += s.weights.Confidence * mult(FeatureConfidence) * (confidence - 0.5) * 2

	if profile.InterestedInCategory(c.Category) {
		z += s.weights.Category * mult(FeatureCategory)
	}
	if c.Subcategory != "" && profile.InterestedInSubcategory(c.Category, c.Subcategory) {
		z += s.weights.Subcategory * mult(FeatureSubcategory)
	}

	if matchesLocale(text, profile) {
		w := s.weights.Locale * mult(FeatureLocale)
		if confidence > 0.6 || critical {
			z += w
		} else {
			// Weak signal: minor local news must not dominate the bundle.
			z += 0.2 * w
		}
	}

	if critical {
		z += s.weights.Criticality * mult(FeatureCriticality)
	}

	p := sigmoid(s.weights.Bias + z)
	return clamp(math.Pow(p, s.weights.Gamma), 0, 1)
}

func matchesLocale(text string, profile domain.UserProfile) bool {
	if profile.City != "" && strings.Contains(text, strings.ToLower(profile.City)) {
		return true
	}
	terms, ok := localeTerms[strings.ToUpper(profile.Locale)]
	if !ok {
		return false
	}
	return containsAny(text, terms)
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
