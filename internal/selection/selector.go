package selection

import (
	"sort"
	"strings"

	"dailybrief/internal/domain"
	"dailybrief/internal/scoring"
)

// PreferenceReader exposes learned interest strengths. The neutral value for
// unseen keys is 0.5.
type PreferenceReader interface {
	Get(userID, key string) float64
}

// Selector assembles the per-user daily bundle from scored articles: first a
// guaranteed slot per subcategory interest, then per category interest, then
// the best of whatever remains. Guarantee passes honor the relevance
// threshold; the filler pass does not, so a thin news day still yields a full
// bundle when enough articles exist.
type Selector struct {
	prefs     PreferenceReader
	limit     int
	threshold float64
}

// NewSelector builds a selector. prefs may be nil, in which case interests
// keep their profile order.
func NewSelector(prefs PreferenceReader, threshold float64) *Selector {
	if threshold <= 0 {
		threshold = 0.40
	}
	return &Selector{prefs: prefs, limit: domain.BundleSize, threshold: threshold}
}

type guarantee struct {
	category    string
	subcategory string // empty for a category guarantee
	strength    float64
}

// Select picks at most seven articles for the profile. Input articles must
// already carry their per-user relevance. The result is sorted by descending
// relevance.
func (s *Selector) Select(profile domain.UserProfile, articles []domain.ClassifiedArticle) []domain.ClassifiedArticle {
	pool := make([]domain.ClassifiedArticle, len(articles))
	copy(pool, articles)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Relevance > pool[j].Relevance })

	picked := make([]domain.ClassifiedArticle, 0, s.limit)
	usedTitles := make(map[string]struct{})
	usedIdx := make(map[int]struct{})

	take := func(i int) {
		picked = append(picked, pool[i])
		usedIdx[i] = struct{}{}
		usedTitles[foldTitle(pool[i].Article.Title)] = struct{}{}
	}
	taken := func(i int) bool {
		if _, ok := usedIdx[i]; ok {
			return true
		}
		_, dup := usedTitles[foldTitle(pool[i].Article.Title)]
		return dup
	}

	for _, g := range s.subcategoryGuarantees(profile) {
		if len(picked) == s.limit {
			break
		}
		for i := range pool {
			if taken(i) || pool[i].Relevance < s.threshold {
				continue
			}
			c := pool[i].Classification
			if c.Category == g.category && domain.NormalizeSubcategory(c.Subcategory) == g.subcategory {
				take(i)
				break
			}
		}
	}

	for _, g := range s.categoryGuarantees(profile) {
		if len(picked) == s.limit {
			break
		}
		if hasCategory(picked, g.category) {
			continue
		}
		for i := range pool {
			if taken(i) || pool[i].Relevance < s.threshold {
				continue
			}
			if pool[i].Classification.Category == g.category {
				take(i)
				break
			}
		}
	}

	// Filler pass: top relevance across the whole pool, no threshold.
	for i := range pool {
		if len(picked) == s.limit {
			break
		}
		if !taken(i) {
			take(i)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Relevance > picked[j].Relevance })
	return picked
}

// subcategoryGuarantees lists the profile's (category, subcategory) interests
// ordered by learned preference strength, profile order breaking ties.
func (s *Selector) subcategoryGuarantees(profile domain.UserProfile) []guarantee {
	var gs []guarantee
	seen := make(map[string]struct{})
	for _, in := range profile.Interests {
		for _, sub := range in.Subcategories {
			norm := domain.NormalizeSubcategory(sub)
			key := scoring.PreferenceKey(in.Category, sub)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			gs = append(gs, guarantee{category: in.Category, subcategory: norm, strength: s.strength(profile.UserID, key)})
		}
	}
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].strength > gs[j].strength })
	return gs
}

// categoryGuarantees lists every interest category once, preference-ordered.
func (s *Selector) categoryGuarantees(profile domain.UserProfile) []guarantee {
	var gs []guarantee
	seen := make(map[string]struct{})
	for _, in := range profile.Interests {
		if _, ok := seen[in.Category]; ok {
			continue
		}
		seen[in.Category] = struct{}{}
		gs = append(gs, guarantee{category: in.Category, strength: s.strength(profile.UserID, scoring.PreferenceKey(in.Category, ""))})
	}
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].strength > gs[j].strength })
	return gs
}

func (s *Selector) strength(userID, key string) float64 {
	if s.prefs == nil {
		return 0.5
	}
	return s.prefs.Get(userID, key)
}

func hasCategory(picked []domain.ClassifiedArticle, category string) bool {
	for _, a := range picked {
		if a.Classification.Category == category {
			return true
		}
	}
	return false
}

func foldTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
